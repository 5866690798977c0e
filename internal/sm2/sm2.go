// internal/sm2/sm2.go
//
// SuperMemo-2 アルゴリズムによる復習スケジュール計算。
// 品質スコア(0-5)から次回のease factor・間隔・連続正解回数を導出する。
package sm2

import (
	"math"
	"time"
)

const (
	// MinEaseFactor を下回るとease factorはこの値に切り上げられる
	MinEaseFactor = 1.3
	// PassThreshold 以上の品質スコアを正解として扱う
	PassThreshold = 3
	// MaxIntervalDays は復習間隔の上限 (1年)
	MaxIntervalDays = 365
)

// Result は1回の品質送信で確定した次のスケジュール状態です
type Result struct {
	EaseFactor  float64
	Interval    int // 日数
	Repetitions int
	NextReview  time.Time
}

// Next は現在の学習状態と品質スコアから次の状態を計算します。
// 純粋関数であり、qualityは呼び出し前に0-5へバリデーション済みであること。
func Next(easeFactor float64, interval, repetitions, quality int, now time.Time) Result {
	// ease factor の更新: EF' = EF + (0.1 - (5-q)*(0.08 + (5-q)*0.02))
	diff := float64(5 - quality)
	newEF := easeFactor + (0.1 - diff*(0.08+diff*0.02))
	if newEF < MinEaseFactor {
		newEF = MinEaseFactor
	}

	var newInterval, newRepetitions int
	if quality >= PassThreshold {
		// 正解: 連続正解回数に応じて間隔を伸ばす
		newRepetitions = repetitions + 1
		switch newRepetitions {
		case 1:
			newInterval = 1
		case 2:
			newInterval = 6
		default:
			newInterval = int(math.Round(float64(interval) * newEF))
		}
		if newInterval > MaxIntervalDays {
			newInterval = MaxIntervalDays
		}
	} else {
		// 不正解: 連続正解回数をリセットし、翌日にやり直す
		newRepetitions = 0
		newInterval = 1
	}

	return Result{
		EaseFactor:  newEF,
		Interval:    newInterval,
		Repetitions: newRepetitions,
		NextReview:  now.AddDate(0, 0, newInterval),
	}
}
