package led

import (
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

const defaultFreqKHz = 800

var hostInit = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

// spiStrip drives WS2812-class LEDs through periph.io's NRZ encoder on SPI.
type spiStrip struct {
	port       spi.PortCloser
	dev        *nrzled.Dev
	count      int
	brightness uint8
}

func newSPI(cfg Config) (*spiStrip, error) {
	if err := hostInit(); err != nil {
		return nil, newError(ErrCodeConfiguration, "host driver init failed", err)
	}

	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		return nil, newError(ErrCodeConfiguration, "open SPI port", err)
	}

	freq := cfg.FreqKHz
	if freq <= 0 {
		freq = defaultFreqKHz
	}
	dev, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: cfg.Count,
		Channels:  3,
		Freq:      physic.Frequency(freq) * physic.KiloHertz,
	})
	if err != nil {
		port.Close()
		return nil, newError(ErrCodeConfiguration, "init nrzled", err)
	}

	return &spiStrip{
		port:       port,
		dev:        dev,
		count:      cfg.Count,
		brightness: clampBrightness(cfg.Brightness),
	}, nil
}

func (s *spiStrip) Len() int { return s.count }

func (s *spiStrip) Render(frame Frame) error {
	if err := checkLen(s, frame); err != nil {
		return err
	}
	if _, err := s.dev.Write(frame.RGBBytes(s.brightness)); err != nil {
		return newError(ErrCodeRender, "write frame", err)
	}
	return nil
}

func (s *spiStrip) Close() error {
	haltErr := s.dev.Halt()
	closeErr := s.port.Close()
	if haltErr != nil {
		return haltErr
	}
	return closeErr
}

func clampBrightness(b int) uint8 {
	switch {
	case b <= 0 || b > 255:
		return 255
	default:
		return uint8(b)
	}
}
