// Package audio connects a sample source to the default output device via
// PortAudio. The stream pulls interleaved stereo float32 frames from the
// source on the audio thread.
package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Source fills an interleaved stereo buffer; it runs on the audio thread and
// must not block.
type Source interface {
	Process(dst []float32)
}

// DefaultBufferSize is the per-callback frame count when the caller does not
// choose one.
const DefaultBufferSize = 512

// Stream owns a running PortAudio output stream.
type Stream struct {
	stream *portaudio.Stream
}

// Open initialises PortAudio and starts pulling from the source.
func Open(source Source, sampleRate, bufferSize int) (*Stream, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(sampleRate), bufferSize,
		func(out []float32) {
			source.Process(out)
		})
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("start stream: %w", err)
	}
	return &Stream{stream: stream}, nil
}

// Close stops the stream and tears PortAudio down.
func (s *Stream) Close() error {
	err := s.stream.Stop()
	if cerr := s.stream.Close(); err == nil {
		err = cerr
	}
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}
