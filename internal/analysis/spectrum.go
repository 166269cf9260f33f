// Package analysis measures rendered audio: levels, spectra and the
// frequency of the strongest partial.
package analysis

import (
	"math"
	"math/cmplx"

	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Spectrum holds the magnitudes of a Hann windowed real FFT.
type Spectrum struct {
	SampleRate float64
	Magnitudes []float64

	fft *fourier.FFT
}

func NewSpectrum(samples []float64, sampleRate float64) Spectrum {
	n := len(samples)
	windowed := make([]float64, n)
	for i, s := range samples {
		windowed[i] = s * hann(i, n)
	}
	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, windowed)

	mags := make([]float64, len(coeffs))
	for i, c := range coeffs {
		mags[i] = cmplx.Abs(c)
	}
	return Spectrum{SampleRate: sampleRate, Magnitudes: mags, fft: fft}
}

func hann(i, n int) float64 {
	if n < 2 {
		return 1
	}
	return 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
}

// Frequency returns the center frequency of bin i in Hz.
func (s Spectrum) Frequency(i int) float64 {
	return s.fft.Freq(i) * s.SampleRate
}

// PeakBin returns the strongest bin at or above minHz, or -1 when there is
// none.
func (s Spectrum) PeakBin(minHz float64) int {
	peak := -1
	for i, m := range s.Magnitudes {
		if s.Frequency(i) < minHz {
			continue
		}
		if peak < 0 || m > s.Magnitudes[peak] {
			peak = i
		}
	}
	return peak
}

// PeakFrequency estimates the frequency of the strongest partial above
// minHz, refined by parabolic interpolation between neighbouring bins.
func (s Spectrum) PeakFrequency(minHz float64) float64 {
	i := s.PeakBin(minHz)
	if i < 0 {
		return 0
	}
	if i == 0 || i == len(s.Magnitudes)-1 {
		return s.Frequency(i)
	}
	a, b, c := s.Magnitudes[i-1], s.Magnitudes[i], s.Magnitudes[i+1]
	var delta float64
	if d := a - 2*b + c; d != 0 {
		delta = 0.5 * (a - c) / d
	}
	binWidth := s.Frequency(1)
	return s.Frequency(i) + delta*binWidth
}

// PeakFrequency is a shorthand for the peak of the spectrum of samples,
// ignoring anything below 20 Hz.
func PeakFrequency(samples []float64, sampleRate float64) float64 {
	if len(samples) < 4 {
		return 0
	}
	return NewSpectrum(samples, sampleRate).PeakFrequency(20)
}

func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return math.Sqrt(f64.DotProduct(samples, samples) / float64(len(samples)))
}

// Peak returns the largest absolute sample value.
func Peak(samples []float64) float64 {
	var peak float64
	for _, s := range samples {
		peak = math.Max(peak, math.Abs(s))
	}
	return peak
}

// DBFS converts a linear level to decibels relative to full scale.
func DBFS(level float64) float64 {
	if level <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(level)
}
