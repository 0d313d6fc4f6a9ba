package entities

// Clamp bounds for numeric preference fields.
const (
	TTSMinSpeed  = 0.5
	TTSMaxSpeed  = 2.0
	TTSMinVolume = 0
	TTSMaxVolume = 100

	PageSensitivityMin = 0
	PageSensitivityMax = 100
)

// DefaultPreferencesID keys the singleton preferences row.
const DefaultPreferencesID = "default"

// Preferences is the single-row user settings record.
type Preferences struct {
	UserID           string  `json:"user_id"`
	TTSSpeed         float64 `json:"tts_speed"`
	TTSVolume        int     `json:"tts_volume"`
	TTSAutoPlay      bool    `json:"tts_auto_play"`
	UILanguage       string  `json:"ui_language"`
	TTSLanguage      string  `json:"tts_language"`
	CameraResolution string  `json:"camera_resolution"`
	PageSensitivity  int     `json:"page_sensitivity"`
	VibrationEnabled bool    `json:"vibration_enabled"`
	SoundEnabled     bool    `json:"sound_enabled"`
}

// DefaultPreferences returns the out-of-the-box settings.
func DefaultPreferences() Preferences {
	return Preferences{
		UserID:           DefaultPreferencesID,
		TTSSpeed:         1.0,
		TTSVolume:        80,
		TTSAutoPlay:      true,
		UILanguage:       "ko",
		TTSLanguage:      "ko",
		CameraResolution: "1080p",
		PageSensitivity:  50,
		VibrationEnabled: true,
		SoundEnabled:     true,
	}
}

// PreferencesPatch carries the fields a save wants to change. Nil fields are
// left as stored.
type PreferencesPatch struct {
	TTSSpeed         *float64
	TTSVolume        *int
	TTSAutoPlay      *bool
	UILanguage       *string
	TTSLanguage      *string
	CameraResolution *string
	PageSensitivity  *int
	VibrationEnabled *bool
	SoundEnabled     *bool
}

// Apply overlays the set fields of patch and clamps numeric values.
func (p *Preferences) Apply(patch PreferencesPatch) {
	if patch.TTSSpeed != nil {
		p.TTSSpeed = *patch.TTSSpeed
	}
	if patch.TTSVolume != nil {
		p.TTSVolume = *patch.TTSVolume
	}
	if patch.TTSAutoPlay != nil {
		p.TTSAutoPlay = *patch.TTSAutoPlay
	}
	if patch.UILanguage != nil {
		p.UILanguage = *patch.UILanguage
	}
	if patch.TTSLanguage != nil {
		p.TTSLanguage = *patch.TTSLanguage
	}
	if patch.CameraResolution != nil {
		p.CameraResolution = *patch.CameraResolution
	}
	if patch.PageSensitivity != nil {
		p.PageSensitivity = *patch.PageSensitivity
	}
	if patch.VibrationEnabled != nil {
		p.VibrationEnabled = *patch.VibrationEnabled
	}
	if patch.SoundEnabled != nil {
		p.SoundEnabled = *patch.SoundEnabled
	}
	p.clamp()
}

func (p *Preferences) clamp() {
	p.TTSSpeed = clampFloat(p.TTSSpeed, TTSMinSpeed, TTSMaxSpeed)
	p.TTSVolume = clampInt(p.TTSVolume, TTSMinVolume, TTSMaxVolume)
	p.PageSensitivity = clampInt(p.PageSensitivity, PageSensitivityMin, PageSensitivityMax)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
