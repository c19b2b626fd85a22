package audio

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/critter/constant"
)

var pipeRate = beep.SampleRate(constant.AudioSampleRate)

// PipeBackend mixes mono PCM and pipes it to a system audio player
// Without a player it runs silent: sounds still decode and plays are accepted
type PipeBackend struct {
	logger *slog.Logger
	player *PlayerConfig
	mixer  *Mixer

	cmd     *exec.Cmd
	stdin   io.WriteCloser
	ossFile *os.File // For direct OSS writes

	silent atomic.Bool
	closed atomic.Bool

	mu sync.Mutex
	wg sync.WaitGroup
}

// PipeFactory returns a factory that detects a player and starts it with the mixer
// It never fails: any startup problem yields a silent backend
func PipeFactory(logger *slog.Logger) BackendFactory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(*Config) (Backend, error) {
		p := &PipeBackend{logger: logger}
		player, err := DetectPlayer()
		if err != nil {
			logger.Info("no system audio player, pipe backend silent")
			p.silent.Store(true)
			return p, nil
		}
		p.player = player
		if err := p.start(); err != nil {
			logger.Warn("audio player failed to start, pipe backend silent", "player", player.Name, "error", err)
			p.silent.Store(true)
		}
		return p, nil
	}
}

// newPipeBackendWriter mixes into w without a subprocess
func newPipeBackendWriter(w io.Writer) *PipeBackend {
	p := &PipeBackend{logger: slog.New(slog.DiscardHandler)}
	p.mixer = NewMixer(w)
	return p
}

func (p *PipeBackend) start() error {
	var writer io.Writer
	if p.player.Type == PlayerOSS {
		f, err := os.OpenFile(p.player.Path, os.O_WRONLY, 0)
		if err != nil {
			return fmt.Errorf("open %s: %w", p.player.Path, err)
		}
		p.ossFile = f
		writer = f
	} else {
		cmd := exec.Command(p.player.Path, p.player.Args...)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return fmt.Errorf("stdin pipe: %w", err)
		}
		if err := cmd.Start(); err != nil {
			stdin.Close()
			return fmt.Errorf("start %s: %w", p.player.Name, err)
		}
		p.cmd = cmd
		p.stdin = stdin
		writer = stdin

		p.wg.Add(1)
		go p.monitorProcess()
	}

	p.mixer = NewMixer(writer)
	p.mixer.Start()

	p.wg.Add(1)
	go p.monitorMixer()
	return nil
}

// monitorProcess watches for subprocess exit
func (p *PipeBackend) monitorProcess() {
	defer p.wg.Done()
	err := p.cmd.Wait()
	if err != nil && !p.closed.Load() && !p.silent.Swap(true) {
		p.logger.Warn("audio player exited", "player", p.player.Name, "error", err)
	}
}

// monitorMixer watches for pipe errors
func (p *PipeBackend) monitorMixer() {
	defer p.wg.Done()
	select {
	case err := <-p.mixer.Errors():
		if !p.closed.Load() {
			p.logger.Warn("audio pipe failed, going silent", "error", err)
		}
		p.silent.Store(true)
	case <-p.mixer.Done():
	}
}

func (p *PipeBackend) Kind() BackendKind { return BackendPipe }

func (p *PipeBackend) Supports(f Format) bool { return decodedSupports(f) }

// Silent reports whether plays are being discarded
func (p *PipeBackend) Silent() bool { return p.silent.Load() }

// Player returns the detected player, nil when silent from the start
func (p *PipeBackend) Player() *PlayerConfig { return p.player }

func (p *PipeBackend) Decode(key string, r io.Reader, f Format) (*Sound, error) {
	if !p.Supports(f) {
		return nil, unsupported(f)
	}
	s, format, err := decodeStream(r, f)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	snd, err := p.Ingest(key, s, format)
	if err != nil {
		return nil, err
	}
	snd.Format = f
	return snd, nil
}

// Ingest downmixes to mono at the pipe rate
func (p *PipeBackend) Ingest(key string, s beep.Streamer, f beep.Format) (*Sound, error) {
	src := resampleTo(s, f.SampleRate, pipeRate)
	chunk := make([][2]float64, 512)
	var pcm floatBuffer
	for {
		n, ok := src.Stream(chunk)
		for i := 0; i < n; i++ {
			pcm = append(pcm, (chunk[i][0]+chunk[i][1])/2)
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("stream %s: %w", key, err)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("sound %s decoded to zero samples", key)
	}
	return &Sound{Key: key, Kind: BackendPipe, pcm: pcm}, nil
}

// Play enqueues a new voice over the stored PCM
func (p *PipeBackend) Play(snd *Sound, opts PlayOptions) error {
	if snd == nil || snd.pcm == nil {
		return fmt.Errorf("%w: not a pipe sound", ErrUnknownSound)
	}
	if p.closed.Load() {
		return ErrClosed
	}
	if p.silent.Load() || p.mixer == nil {
		return nil
	}
	req := playRequest{
		pcm:    snd.pcm,
		volume: opts.Volume,
		step:   pitchRatio(opts.PitchCents),
		wait:   pipeRate.N(opts.Delay),
	}
	if !p.mixer.Enqueue(req) {
		return fmt.Errorf("pipe play queue full, dropped %s", snd.Key)
	}
	return nil
}

// Close terminates the mixer and player
func (p *PipeBackend) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mixer != nil {
		p.mixer.Stop()
	}
	if p.stdin != nil {
		p.stdin.Close()
	}
	if p.ossFile != nil {
		p.ossFile.Close()
	}
	if p.cmd != nil && p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}

	p.wg.Wait()
	return nil
}
