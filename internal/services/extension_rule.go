package services

import "time"

// DefaultSnipeWindow is both the trailing window that triggers an extension and the distance
// from the bid to the new end time.
const DefaultSnipeWindow = 600 * time.Second

// ExtensionRule implements anti-sniping: a bid accepted within Window of the end pushes the
// end to now+Window. The extension is a floor, not additive, and is not capped.
type ExtensionRule struct {
	Window time.Duration
}

type Extension struct {
	OriginalEndTime int64
	NewEndTime      int64
	Extended        bool
	Seconds         int64
}

func NewExtensionRule(window time.Duration) ExtensionRule {
	if window < time.Second {
		window = DefaultSnipeWindow
	}
	return ExtensionRule{Window: window}
}

// Apply assumes now < endTime; callers reject bids past the end before asking.
func (r ExtensionRule) Apply(endTime, now int64) Extension {
	window := int64(r.Window / time.Second)
	ext := Extension{OriginalEndTime: endTime, NewEndTime: endTime}

	if endTime-now <= window {
		ext.NewEndTime = now + window
		ext.Extended = true
		ext.Seconds = ext.NewEndTime - endTime
	}
	return ext
}
