package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/relaycore/dynrelay/internal/logging"
	"github.com/relaycore/dynrelay/internal/relayengine"
)

// Lifecycle orchestrates add/replace/remove/expire operations across the
// Registry, Media Reference Map and Media Engine Adapter (C4). It owns
// the stream-lifetime rules described in spec §4.4.
type Lifecycle struct {
	registry *Registry
	refs     *MediaRefMap
	engine   relayengine.Adapter
	log      *logging.Logger

	rootURL       string
	expirationTTL time.Duration
	maxLifetime   time.Duration
}

// NewLifecycle constructs a Lifecycle Manager bound to the given
// collaborators. maxLifetime of zero disables the hard ceiling.
func NewLifecycle(registry *Registry, refs *MediaRefMap, engine relayengine.Adapter, rootURL string, expirationTTL, maxLifetime time.Duration, log *logging.Logger) *Lifecycle {
	if log == nil {
		log = logging.New("relay.lifecycle")
	}
	return &Lifecycle{
		registry:      registry,
		refs:          refs,
		engine:        engine,
		log:           log,
		rootURL:       rootURL,
		expirationTTL: expirationTTL,
		maxLifetime:   maxLifetime,
	}
}

func (l *Lifecycle) publicURL(id string) string {
	root := l.rootURL
	if root == "" {
		return id
	}
	if root[len(root)-1] == '/' {
		return root + id
	}
	return root + "/" + id
}

// mountAndRegisterCallback builds and mounts a factory for the given
// path, wiring the engine's on-media-configure callback to append weak
// handles into the Media Reference Map (§4.4 step 3-4). The Registry is
// NOT touched here; callers insert only after a successful mount, per
// §5's cancellation rule (insert last).
func (l *Lifecycle) mountAndRegisterCallback(ctx context.Context, path, sourceURL string, downscale bool) (*relayengine.Factory, error) {
	factory, err := l.engine.BuildFactory(sourceURL, downscale)
	if err != nil {
		return nil, Internal("lifecycle.build_factory", "failed to build pipeline factory", err)
	}

	l.engine.OnMediaConfigure(path, func(cbPath string, info *relayengine.MediaInstanceInfo) {
		instance := &MediaInstance{Path: cbPath, Sessions: info.Sessions}
		l.refs.Append(cbPath, NewMediaHandle(instance))
	})

	if err := l.engine.Mount(ctx, path, factory); err != nil {
		return nil, Internal("lifecycle.mount", fmt.Sprintf("failed to mount path %s", path), err)
	}
	return factory, nil
}

// AddExpirable implements §4.4 add_expirable: mint a fresh id, mount a
// factory, and register a soft-TTL Stream.
func (l *Lifecycle) AddExpirable(ctx context.Context, name, sourceURL string, downscale bool) (Stream, error) {
	now := time.Now()
	return l.addWithGeneratedID(ctx, name, sourceURL, downscale, At(now.Add(l.expirationTTL)))
}

// Add implements the POST /streams surface (§6), which picks between
// add_expirable and a generated-id permanent add based on the caller's
// expirable flag ("add_expirable or add-never per expirable").
func (l *Lifecycle) Add(ctx context.Context, name, sourceURL string, downscale, expirable bool) (Stream, error) {
	if expirable {
		return l.AddExpirable(ctx, name, sourceURL, downscale)
	}
	return l.addWithGeneratedID(ctx, name, sourceURL, downscale, Never())
}

func (l *Lifecycle) addWithGeneratedID(ctx context.Context, name, sourceURL string, downscale bool, expiration Expiration) (Stream, error) {
	id := NewStreamID()
	path := MountPath(id)

	if _, err := l.mountAndRegisterCallback(ctx, path, sourceURL, downscale); err != nil {
		return Stream{}, err
	}

	s := Stream{
		ID:         id,
		Name:       name,
		SourceURL:  sourceURL,
		Downscale:  downscale,
		PublicURL:  l.publicURL(id),
		AddedAt:    time.Now(),
		Expiration: expiration,
	}
	if err := l.registry.Insert(s); err != nil {
		// Mount succeeded but the id somehow already exists; unmount to
		// avoid leaking a dangling factory at a path we no longer track.
		_ = l.engine.Unmount(ctx, path)
		return Stream{}, err
	}
	l.log.WithField("id", id).WithField("path", path).Info("stream added")
	return s, nil
}

// PutPermanent implements §4.4 put_permanent: replace-or-create
// semantics for a caller-chosen id. The prior factory, if any, is
// unmounted before the new one is mounted at the same path (mandatory
// ordering, §4.4).
func (l *Lifecycle) PutPermanent(ctx context.Context, id, name, sourceURL string, downscale bool) (Stream, error) {
	if _, err := l.Remove(ctx, id); err != nil && KindOf(err) != KindNotFound {
		return Stream{}, err
	}

	path := MountPath(id)
	if _, err := l.mountAndRegisterCallback(ctx, path, sourceURL, downscale); err != nil {
		return Stream{}, err
	}

	s := Stream{
		ID:         id,
		Name:       name,
		SourceURL:  sourceURL,
		Downscale:  downscale,
		PublicURL:  l.publicURL(id),
		AddedAt:    time.Now(),
		Expiration: Never(),
	}
	if err := l.registry.Insert(s); err != nil {
		_ = l.engine.Unmount(ctx, path)
		return Stream{}, err
	}
	l.log.WithField("id", id).WithField("path", path).Info("stream put (permanent)")
	return s, nil
}

// Remove implements §4.4 remove: unconditional teardown. Removing an
// absent id is idempotent and succeeds.
func (l *Lifecycle) Remove(ctx context.Context, id string) (Stream, error) {
	path := MountPath(id)

	s, err := l.registry.Remove(id)
	if err != nil && KindOf(err) != KindNotFound {
		return Stream{}, err
	}
	notFound := err != nil

	if unmountErr := l.engine.Unmount(ctx, path); unmountErr != nil {
		l.log.WithError(unmountErr).WithField("path", path).Warn("unmount failed during remove")
	}

	var firstUnprepareErr error
	for _, h := range l.refs.Handles(path) {
		instance, ok := h.Upgrade()
		if !ok {
			continue
		}
		info := &relayengine.MediaInstanceInfo{Sessions: instance.Sessions}
		if uerr := l.engine.Unprepare(ctx, path, info); uerr != nil && firstUnprepareErr == nil {
			firstUnprepareErr = uerr
			l.log.WithError(uerr).WithField("path", path).Warn("unprepare failed")
		}
	}
	l.refs.Clear(path)

	if notFound {
		l.log.WithField("id", id).Debug("remove: id was not registered, idempotent no-op")
		return Stream{}, nil
	}
	l.log.WithField("id", id).Info("stream removed")
	if firstUnprepareErr != nil {
		return s, Internal("lifecycle.remove", "unprepare failed for one or more media handles", firstUnprepareErr)
	}
	return s, nil
}

// RemoveIfIdle implements §4.4 remove_if_idle: conditional teardown
// used by the sweeper. A stream with live clients and age below the
// hard max-lifetime ceiling is preserved; otherwise it is torn down
// exactly as Remove does.
func (l *Lifecycle) RemoveIfIdle(ctx context.Context, id string, now time.Time) error {
	path := MountPath(id)
	active := l.refs.ActiveSessions(path)

	s, ok := l.registry.Get(id)
	if !ok {
		l.log.WithField("id", id).Warn("remove_if_idle: id vanished before sweep reached it")
		return nil
	}

	age := now.Sub(s.AddedAt)
	if active > 0 && (l.maxLifetime <= 0 || age < l.maxLifetime) {
		l.log.WithField("id", id).WithField("active_sessions", active).Debug("remove_if_idle: stream preserved, active clients")
		return nil
	}

	_, err := l.Remove(ctx, id)
	return err
}
