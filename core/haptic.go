package core

// Buzzer is anything that can emit a short physical or audible nudge
// tcell.Screen satisfies it through Beep
type Buzzer interface {
	Beep() error
}

// Haptic triggers a nudge on devices that support one
// Unsupported devices and errors are ignored, feedback is best effort
func Haptic(b Buzzer) bool {
	if b == nil {
		return false
	}
	return b.Beep() == nil
}
