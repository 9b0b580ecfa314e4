package flashcard

import (
	"math"
	"time"

	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SM-2 SCHEDULER (Планировщик интервальных повторений)
// Классический алгоритм SuperMemo-2. Оценка ответа отображается в качество
// 0-5, интервал и коэффициент лёгкости пересчитываются детерминированно.
// Переход состояния атомарен: при ошибке валидации карточка не меняется.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultEaseFactor - начальный коэффициент лёгкости новой карточки.
	DefaultEaseFactor = 2.5

	// MinEaseFactor - нижняя граница коэффициента лёгкости.
	MinEaseFactor = 1.3

	// MasteredInterval - интервал в днях, с которого карточка считается
	// освоенной.
	MasteredInterval = 21

	// PassingQuality - минимальное качество, засчитываемое как успех.
	PassingQuality = 3
)

// Rating - оценка ответа учащегося.
type Rating string

const (
	// RatingAgain - полный провал, карточка начинается заново.
	RatingAgain Rating = "again"

	// RatingHard - правильно, но с большим трудом.
	RatingHard Rating = "hard"

	// RatingGood - правильно с некоторым усилием.
	RatingGood Rating = "good"

	// RatingEasy - безупречное воспоминание.
	RatingEasy Rating = "easy"
)

// qualityMap - отображение оценки в качество SM-2.
var qualityMap = map[Rating]int{
	RatingAgain: 0,
	RatingHard:  3,
	RatingGood:  4,
	RatingEasy:  5,
}

// IsValid проверяет, что оценка известна.
func (r Rating) IsValid() bool {
	_, ok := qualityMap[r]
	return ok
}

// Quality возвращает качество SM-2 для оценки.
// Возвращает shared.ErrInvalidRating для неизвестной оценки.
func (r Rating) Quality() (int, error) {
	q, ok := qualityMap[r]
	if !ok {
		return 0, shared.ErrInvalidRating
	}
	return q, nil
}

// StatusForInterval возвращает стадию изучения по интервалу.
func StatusForInterval(interval int) Status {
	switch {
	case interval >= MasteredInterval:
		return StatusMastered
	case interval >= 1:
		return StatusReviewing
	default:
		return StatusLearning
	}
}

// nextEaseFactor пересчитывает коэффициент лёгкости по качеству ответа.
// Формула SM-2: ef + (0.1 - (5-q) * (0.08 + (5-q) * 0.02)), но не ниже
// MinEaseFactor.
func nextEaseFactor(ef float64, quality int) float64 {
	q := float64(5 - quality)
	next := ef + (0.1 - q*(0.08+q*0.02))
	if next < MinEaseFactor || math.IsNaN(next) {
		return MinEaseFactor
	}
	return next
}

// ReviewOutcome - результат одного повторения.
type ReviewOutcome struct {
	// Quality - качество ответа по шкале SM-2.
	Quality int

	// Interval - новый интервал в днях.
	Interval int

	// EaseFactor - новый коэффициент лёгкости.
	EaseFactor float64

	// Repetitions - новый счётчик успешных повторений.
	Repetitions int

	// Status - новая стадия изучения.
	Status Status

	// NextReviewAt - момент следующего повторения.
	NextReviewAt time.Time

	// Lapsed - true, если ответ провален и прогресс сброшен.
	Lapsed bool
}

// Review применяет оценку к карточке по алгоритму SM-2.
//
// Правила:
//   - качество < 3 сбрасывает прогресс: repetitions=0, interval=0,
//     статус learning; коэффициент лёгкости не меняется;
//   - иначе интервал: 1 день после первого успеха, 6 после второго,
//     далее round(interval * easeFactor) от значений ДО пересчёта;
//     repetitions растёт, коэффициент лёгкости обновляется и
//     ограничивается снизу MinEaseFactor;
//   - статус производен от нового интервала (21/1);
//   - следующее повторение: now + interval дней.
//
// Неизвестная оценка возвращает shared.ErrInvalidRating, карточка
// при этом не изменяется. Запись истории добавляется всегда при успехе
// вызова.
func (c *Card) Review(rating Rating, now time.Time) (ReviewOutcome, error) {
	quality, err := rating.Quality()
	if err != nil {
		return ReviewOutcome{}, err
	}

	ts := now.UTC()
	lapsed := quality < PassingQuality

	if lapsed {
		c.Repetitions = 0
		c.Interval = 0
		c.Status = StatusLearning
	} else {
		switch c.Repetitions {
		case 0:
			c.Interval = 1
		case 1:
			c.Interval = 6
		default:
			c.Interval = int(math.Round(float64(c.Interval) * c.EaseFactor))
		}
		c.Repetitions++
		c.EaseFactor = nextEaseFactor(c.EaseFactor, quality)
		c.Status = StatusForInterval(c.Interval)
	}

	c.NextReviewAt = ts.AddDate(0, 0, c.Interval)
	c.LastReviewedAt = ts
	c.ReviewHistory = append(c.ReviewHistory, ReviewRecord{
		Timestamp:  ts,
		Quality:    quality,
		Interval:   c.Interval,
		EaseFactor: c.EaseFactor,
	})
	c.UpdatedAt = ts

	return ReviewOutcome{
		Quality:      quality,
		Interval:     c.Interval,
		EaseFactor:   c.EaseFactor,
		Repetitions:  c.Repetitions,
		Status:       c.Status,
		NextReviewAt: c.NextReviewAt,
		Lapsed:       lapsed,
	}, nil
}
