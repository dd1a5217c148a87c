package cache

import (
	"time"
)

// bhavcopyPublishHour はNSEが当日の bhavcopy を公開し終える時刻（インド標準時）です。
const bhavcopyPublishHour = 19

// TimeUntilNextBhavcopy は次の bhavcopy 公開時刻（インド標準時 19:00）までの期間を返します。
func TimeUntilNextBhavcopy() time.Duration {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.FixedZone("IST", 5*60*60+30*60)
	}
	return timeUntilNext(time.Now().In(loc), bhavcopyPublishHour)
}

// timeUntilNext は now から次の hour 時ちょうどまでの期間を返します。
func timeUntilNext(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())

	// 今日の公開時刻が既に過ぎている場合は翌日を使用
	if !now.Before(next) {
		next = next.Add(24 * time.Hour)
	}

	return next.Sub(now)
}
