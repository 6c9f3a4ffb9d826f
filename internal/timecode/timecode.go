// Package timecode implements the frame-accurate instant value type the
// scheduler core is built on: an integer frame count tagged with a frame
// rate, plus the "empty" sentinel used before a channel has ticked.
//
// Two timecodes are only meaningfully ordered when they share an FPS; see
// the Before/IsBetween docs for the contract callers must
// uphold (the release algorithm in channelqueue enforces it before calling
// in).
package timecode

import "fmt"

// ParseFPS maps a wire-format rate string (as used by internal/eventbus and
// internal/console) to its FPS code.
func ParseFPS(s string) (FPS, error) {
	switch s {
	case "24":
		return FPS24, nil
	case "25":
		return FPS25, nil
	case "29.97":
		return FPS2997, nil
	case "30":
		return FPS30, nil
	case "50":
		return FPS50, nil
	case "59.94":
		return FPS5994, nil
	case "60":
		return FPS60, nil
	default:
		return FPSUnknown, fmt.Errorf("timecode: unknown fps %q", s)
	}
}

// FPS is a discrete frame-rate code. Carrying the rate as an enumerated set
// rather than a float keeps equality well-defined, per the scheduler's
// design notes.
type FPS int

const (
	FPSUnknown FPS = iota
	FPS24
	FPS25
	FPS2997 // 29.97 NTSC, drop-frame
	FPS30
	FPS50
	FPS5994 // 59.94 NTSC, drop-frame
	FPS60
)

// nominal is the rounded integer rate used for wrap-around arithmetic.
// Broadcast timecode wraps at 24h of frames; drop-frame rates still wrap on
// their rounded nominal rate for this purpose.
func (f FPS) nominal() int64 {
	switch f {
	case FPS24:
		return 24
	case FPS25:
		return 25
	case FPS2997:
		return 30
	case FPS30:
		return 30
	case FPS50:
		return 50
	case FPS5994:
		return 60
	case FPS60:
		return 60
	default:
		return 0
	}
}

// FramesPerDay is the wrap-around modulus for this rate. Zero for
// FPSUnknown, which never wraps.
func (f FPS) FramesPerDay() int64 {
	n := f.nominal()
	if n == 0 {
		return 0
	}
	return n * 86400
}

func (f FPS) String() string {
	switch f {
	case FPS24:
		return "24"
	case FPS25:
		return "25"
	case FPS2997:
		return "29.97"
	case FPS30:
		return "30"
	case FPS50:
		return "50"
	case FPS5994:
		return "59.94"
	case FPS60:
		return "60"
	default:
		return "unknown"
	}
}

// Timecode is a frame-accurate instant: a frame count at a given FPS, or the
// empty sentinel. The zero value is empty.
type Timecode struct {
	frames int64
	fps    FPS
	set    bool
}

// Empty returns the empty sentinel. It compares equal only to itself.
func Empty() Timecode {
	return Timecode{}
}

// New returns a Timecode at the given frame count and rate.
func New(frames int64, fps FPS) Timecode {
	return Timecode{frames: frames, fps: fps, set: true}
}

// IsEmpty reports whether this is the empty sentinel.
func (t Timecode) IsEmpty() bool {
	return !t.set
}

// FPS returns the frame rate. Meaningless on an empty Timecode.
func (t Timecode) FPS() FPS {
	return t.fps
}

// Frames returns the raw frame count. Meaningless on an empty Timecode.
func (t Timecode) Frames() int64 {
	return t.frames
}

// Equal reports value equality. Empty equals only empty; two non-empty
// timecodes at different FPS are never equal (comparison is only defined
// when rates match, so a mismatch is simply "not equal" rather than a
// panic).
func (t Timecode) Equal(other Timecode) bool {
	if t.set != other.set {
		return false
	}
	if !t.set {
		return true
	}
	return t.fps == other.fps && t.frames == other.frames
}

// Add returns the timecode n frames later, wrapping at this rate's
// frames-per-day modulus. Panics on an empty receiver.
func (t Timecode) Add(n int64) Timecode {
	if !t.set {
		panic("timecode: Add on empty timecode")
	}
	f := t.frames + n
	if day := t.fps.FramesPerDay(); day > 0 {
		f %= day
		if f < 0 {
			f += day
		}
	}
	return Timecode{frames: f, fps: t.fps, set: true}
}

// Before reports whether t sorts strictly before other at the same FPS.
// Panics if either is empty or their rates differ — ordering across
// mismatched rates is undefined and callers (channelqueue's release
// algorithm) must guard against it first.
func (t Timecode) Before(other Timecode) bool {
	t.mustComparable(other)
	return t.frames < other.frames
}

// IsBetween reports the half-open interval test lo <= t < hi, required by
// the release-window rule in channelqueue. All three timecodes must share
// an FPS and be non-empty.
func (t Timecode) IsBetween(lo, hi Timecode) bool {
	t.mustComparable(lo)
	t.mustComparable(hi)
	return !t.Before(lo) && t.Before(hi)
}

func (t Timecode) mustComparable(other Timecode) {
	if !t.set || !other.set {
		panic("timecode: comparison involving empty timecode")
	}
	if t.fps != other.fps {
		panic(fmt.Sprintf("timecode: comparison across mismatched fps (%s vs %s)", t.fps, other.fps))
	}
}

// String renders the timecode for logs; "empty" for the sentinel.
func (t Timecode) String() string {
	if !t.set {
		return "empty"
	}
	return fmt.Sprintf("%d@%sfps", t.frames, t.fps)
}
