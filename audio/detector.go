package audio

import (
	"os"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/lixenwraith/critter/constant"
)

// lookPathFunc resolves an executable, exec.LookPath in production
type lookPathFunc func(file string) (string, error)

// DetectPlayer searches for a system tool that plays raw s16le from stdin
// Priority: pacat > pw-cat > aplay > play (sox) > ffplay > OSS
func DetectPlayer() (*PlayerConfig, error) {
	return detectPlayer(exec.LookPath, runtime.GOOS)
}

func detectPlayer(lookPath lookPathFunc, goos string) (*PlayerConfig, error) {
	rate := strconv.Itoa(constant.AudioSampleRate)
	channels := strconv.Itoa(constant.AudioChannels)

	candidates := []PlayerConfig{
		{Type: PlayerPulse, Name: "pacat", Args: []string{
			"--raw", "--format=s16le", "--rate=" + rate, "--channels=" + channels,
			"--latency-msec=50", "--playback",
		}},
		{Type: PlayerPipeWire, Name: "pw-cat", Args: []string{
			"--playback", "--format=s16", "--rate=" + rate, "--channels=" + channels,
			"--latency=50ms", "-",
		}},
		{Type: PlayerALSA, Name: "aplay", Args: []string{
			"-t", "raw", "-f", "S16_LE", "-r", rate, "-c", channels, "-q",
		}},
		{Type: PlayerSoX, Name: "play", Args: []string{
			"-t", "raw", "-e", "signed", "-b", "16", "-c", channels, "-r", rate,
			"-", "-d", "-q",
		}},
		{Type: PlayerFFplay, Name: "ffplay", Args: []string{
			"-nodisp", "-autoexit", "-f", "s16le", "-ac", channels, "-ar", rate,
			"-probesize", "32", "-analyzeduration", "0", "-i", "pipe:0",
			"-loglevel", "quiet",
		}},
	}

	for _, c := range candidates {
		if path, err := lookPath(c.Name); err == nil {
			c.Path = path
			return &c, nil
		}
	}

	// FreeBSD OSS, direct device write
	if goos == "freebsd" {
		if _, err := os.Stat("/dev/dsp"); err == nil {
			return &PlayerConfig{Type: PlayerOSS, Name: "oss", Path: "/dev/dsp"}, nil
		}
	}

	return nil, ErrNoAudioBackend
}
