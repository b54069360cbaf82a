package model

import (
	"slices"
	"time"

	"github.com/sakif/fresh-start/internal/apperror"
)

// Emotion is how the user felt when a craving hit.
type Emotion string

const (
	EmotionStressed Emotion = "stressed"
	EmotionAnxious  Emotion = "anxious"
	EmotionBored    Emotion = "bored"
	EmotionSad      Emotion = "sad"
	EmotionAngry    Emotion = "angry"
	EmotionHappy    Emotion = "happy"
	EmotionTired    Emotion = "tired"
	EmotionSocial   Emotion = "social"
)

// Emotions lists every accepted Emotion in display order.
var Emotions = []Emotion{
	EmotionStressed, EmotionAnxious, EmotionBored, EmotionSad,
	EmotionAngry, EmotionHappy, EmotionTired, EmotionSocial,
}

// Situation is where the user was when a craving hit.
type Situation string

const (
	SituationWork      Situation = "work"
	SituationHome      Situation = "home"
	SituationSocial    Situation = "social"
	SituationDriving   Situation = "driving"
	SituationBreak     Situation = "break"
	SituationPhone     Situation = "phone"
	SituationAlcohol   Situation = "alcohol"
	SituationAfterMeal Situation = "aftermeal"
)

// Situations lists every accepted Situation in display order.
var Situations = []Situation{
	SituationWork, SituationHome, SituationSocial, SituationDriving,
	SituationBreak, SituationPhone, SituationAlcohol, SituationAfterMeal,
}

const (
	MinIntensity = 1
	MaxIntensity = 10

	// TimeLayout is the HH:MM format of TriggerRecord.Time.
	TimeLayout = "15:04"
)

// TriggerRecord is one logged craving.
type TriggerRecord struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Emotion   Emotion   `json:"emotion"`
	Situation Situation `json:"situation"`
	Intensity int       `json:"intensity"`
}

func (r TriggerRecord) Validate() error {
	if r.ID == "" {
		return apperror.ValidationFailed("id", "trigger id is required")
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return apperror.ValidationFailed("date", "date must be a calendar day formatted YYYY-MM-DD")
	}
	if _, err := time.Parse(TimeLayout, r.Time); err != nil {
		return apperror.ValidationFailed("time", "time must be formatted HH:MM")
	}
	if !slices.Contains(Emotions, r.Emotion) {
		return apperror.ValidationFailed("emotion", "unknown emotion "+string(r.Emotion))
	}
	if !slices.Contains(Situations, r.Situation) {
		return apperror.ValidationFailed("situation", "unknown situation "+string(r.Situation))
	}
	if r.Intensity < MinIntensity || r.Intensity > MaxIntensity {
		return apperror.ValidationFailed("intensity", "intensity must be between 1 and 10")
	}
	return nil
}
