package audio

import (
	"github.com/gordonklaus/portaudio"
)

type Source interface {
	Process([][]float32)
}

type Ticker interface {
	Tick(numSamples int)
}

// Mixer clears the output, runs the tickers and lets every source add its
// signal. The offline renderer drives it directly.
type Mixer struct {
	sources []Source
	tickers []Ticker
}

func (m *Mixer) AddSources(sources ...Source) {
	m.sources = append(m.sources, sources...)
}

func (m *Mixer) AddTicker(ticker Ticker) {
	m.tickers = append(m.tickers, ticker)
}

func (m *Mixer) Process(samples [][]float32) {
	for i := range samples {
		for j := range samples[i] {
			samples[i][j] = 0.
		}
	}
	for _, ticker := range m.tickers {
		ticker.Tick(len(samples[0]))
	}
	for _, source := range m.sources {
		source.Process(samples)
	}
}

// Sink plays a Mixer on the default output device.
type Sink struct {
	*Mixer
	stream *portaudio.Stream
}

func NewSink(mixer *Mixer, sampleRate float64, bufferSize int) (*Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	s := Sink{Mixer: mixer}
	stream, err := portaudio.OpenDefaultStream(0, 2, sampleRate, bufferSize, s.Mixer.Process)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	s.stream = stream
	return &s, nil
}

func (s *Sink) Start() error {
	return s.stream.Start()
}

func (s *Sink) Stop() error {
	s.stream.Close()
	portaudio.Terminate()
	return nil
}
