package discord

import (
	"fmt"
	"time"
)

// TimestampStyle стиль отображения времени в клиенте Discord.
// Клиент рендерит <t:unix:стиль> в часовом поясе читателя.
type TimestampStyle string

const (
	// StyleShortTime например «16:20»
	StyleShortTime TimestampStyle = "t"
	// StyleLongTime например «16:20:30»
	StyleLongTime TimestampStyle = "T"
	// StyleShortDate например «20/04/2021»
	StyleShortDate TimestampStyle = "d"
	// StyleLongDate например «20 April 2021»
	StyleLongDate TimestampStyle = "D"
	// StyleShortDateTime например «20 April 2021 16:20»
	StyleShortDateTime TimestampStyle = "f"
	// StyleLongDateTime например «Tuesday, 20 April 2021 16:20»
	StyleLongDateTime TimestampStyle = "F"
	// StyleRelative например «2 months ago»
	StyleRelative TimestampStyle = "R"
)

// utcFormat формат абсолютного времени для текстов, где «местная»
// разметка Discord недоступна или нужен однозначный UTC-вариант
const utcFormat = "2006-01-02 15:04"

// Timestamp строит разметку местного времени для клиента Discord
func Timestamp(t time.Time, style TimestampStyle) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), style)
}

// FormatLocal возвращает дату и время в местной разметке Discord
func FormatLocal(t time.Time) string {
	return Timestamp(t, StyleShortDateTime)
}

// FormatUTC возвращает дату и время в UTC единым текстовым форматом
func FormatUTC(t time.Time) string {
	return t.UTC().Format(utcFormat)
}
