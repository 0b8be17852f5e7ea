package utils

import "time"

// time.go - время и свежесть данных
//
// Используется для определения возраста блока/балансов при сборке
// ордербука (spec §9 "balance/simulator block drift") и форматирования
// длительностей в логах.

// UnixMillis возвращает текущее время в миллисекундах Unix.
func UnixMillis() int64 {
	return time.Now().UnixMilli()
}

// FromUnixMillis конвертирует миллисекунды Unix в time.Time (UTC).
func FromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// ToUTC конвертирует время в UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// Age возвращает время, прошедшее с момента t.
func Age(t time.Time) time.Duration {
	return time.Since(t)
}

// IsStale сообщает, старше ли t указанного максимального возраста —
// используется для флагирования устаревших балансов/цен при сборке
// ордербука, когда блок симулятора и момент получения баланса разошлись.
func IsStale(t time.Time, maxAge time.Duration) bool {
	return Age(t) > maxAge
}

// FormatDuration форматирует продолжительность в человекочитаемый формат
// для логов (например "45s", "5m30s", "2h15m0s").
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	return d.Round(time.Second).String()
}
