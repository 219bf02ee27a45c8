package relayengine

import "fmt"

// buildFactory constructs the Factory for one of the two fixed launch
// recipes (§4.1/§6). Both implementations (real and fake) share this so
// the pipeline parameters — pay0, pt 96, 640x320 I420, 500kbps/ultrafast/
// keyint=30 — never drift between them.
func buildFactory(sourceURL string, downscale bool) (*Factory, error) {
	if sourceURL == "" {
		return nil, fmt.Errorf("relayengine: source_url must not be empty")
	}

	f := &Factory{
		SourceURL:      sourceURL,
		Shared:         true,
		PayloadElement: "pay0",
		PayloadType:    96,
	}

	if !downscale {
		f.Recipe = Passthrough
		f.LaunchString = fmt.Sprintf(
			"rtspsrc location=%s protocols=tcp latency=50 ! rtph264depay ! h264parse ! rtph264pay name=pay0 pt=96",
			sourceURL,
		)
		return f, nil
	}

	f.Recipe = Downscale
	f.LaunchString = fmt.Sprintf(
		"rtspsrc location=%s protocols=tcp latency=50 ! rtph264depay ! h264parse ! avdec_h264 ! "+
			"videoscale ! video/x-raw,width=640,height=320,format=I420 ! "+
			"x264enc bitrate=500 speed-preset=ultrafast key-int-max=30 ! "+
			"h264parse ! rtph264pay name=pay0 pt=96",
		sourceURL,
	)
	return f, nil
}
