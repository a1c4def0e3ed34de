package media

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFFProbeDuration(t *testing.T) {
	var gotBinary string
	var gotArgs []string

	prober := NewFFProbe("ffprobe", time.Second)
	prober.Run = func(_ context.Context, binary string, args ...string) ([]byte, error) {
		gotBinary = binary
		gotArgs = args
		return []byte(`{"format":{"duration":"12.500000"}}`), nil
	}

	duration, err := prober.Duration(context.Background(), "/tmp/clip.mp4")
	if err != nil {
		t.Fatalf("duration: %v", err)
	}
	if duration != 12.5 {
		t.Fatalf("expected 12.5 got %v", duration)
	}

	if gotBinary != "ffprobe" {
		t.Fatalf("expected ffprobe binary got %q", gotBinary)
	}
	if len(gotArgs) == 0 || gotArgs[len(gotArgs)-1] != "/tmp/clip.mp4" {
		t.Fatalf("expected path as final argument got %v", gotArgs)
	}
}

func TestFFProbeDurationFailures(t *testing.T) {
	cases := []struct {
		name string
		run  CommandRunner
	}{
		{
			name: "command failure",
			run: func(context.Context, string, ...string) ([]byte, error) {
				return nil, errors.New("exit status 1")
			},
		},
		{
			name: "not json",
			run: func(context.Context, string, ...string) ([]byte, error) {
				return []byte("not json"), nil
			},
		},
		{
			name: "no duration field",
			run: func(context.Context, string, ...string) ([]byte, error) {
				return []byte(`{"format":{}}`), nil
			},
		},
		{
			name: "unparseable duration",
			run: func(context.Context, string, ...string) ([]byte, error) {
				return []byte(`{"format":{"duration":"abc"}}`), nil
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prober := NewFFProbe("ffprobe", time.Second)
			prober.Run = tc.run

			if _, err := prober.Duration(context.Background(), "/tmp/clip.mp4"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestFFProbeNilProber(t *testing.T) {
	var prober *FFProbe
	if _, err := prober.Duration(context.Background(), "/tmp/clip.mp4"); !errors.Is(err, ErrProberUnavailable) {
		t.Fatalf("expected ErrProberUnavailable got %v", err)
	}
}
