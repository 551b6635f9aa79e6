package locale

import "fmt"

// Pick returns the text matching the language, defaulting to Russian.
func Pick(language, english, russian string) string {
	if NormalizeLanguage(language) == LanguageEnglish {
		if english != "" {
			return english
		}
		return russian
	}
	if russian != "" {
		return russian
	}
	return english
}

// DaysWord returns the noun for "days" agreeing with n.
func DaysWord(language string, n int) string {
	if n < 0 {
		n = -n
	}
	if NormalizeLanguage(language) == LanguageEnglish {
		if n == 1 {
			return "day"
		}
		return "days"
	}
	switch {
	case n%10 == 1 && n%100 != 11:
		return "день"
	case n%10 >= 2 && n%10 <= 4 && (n%100 < 12 || n%100 > 14):
		return "дня"
	default:
		return "дней"
	}
}

// DueIn renders the detail-screen hint for an event due in days.
func DueIn(language string, days int) string {
	switch {
	case days < 0:
		return Pick(language,
			fmt.Sprintf("overdue by %d %s", -days, DaysWord(language, days)),
			fmt.Sprintf("просрочено на %d %s", -days, DaysWord(language, days)))
	case days == 0:
		return Pick(language, "today", "сегодня")
	default:
		return Pick(language,
			fmt.Sprintf("in %d %s", days, DaysWord(language, days)),
			fmt.Sprintf("через %d %s", days, DaysWord(language, days)))
	}
}

// KindAction names a care kind as an action noun.
func KindAction(language, kind string) string {
	switch kind {
	case "watering":
		return Pick(language, "watering", "полив")
	case "fertilizing":
		return Pick(language, "fertilizing", "удобрение")
	default:
		return Pick(language, "care", "уход")
	}
}

// DueTodayText is the urgent reminder for care due today.
func DueTodayText(language, plant, kind string) (title, body string) {
	switch kind {
	case "watering":
		return Pick(language, "Time to water!", "Пора полить!"),
			Pick(language, "Water me 😞\nTime to water "+plant, "Полей меня 😞\nПора полить "+plant)
	case "fertilizing":
		return Pick(language, "Time to fertilize!", "Пора удобрить!"),
			Pick(language, "Feed me 😞\nTime to fertilize "+plant, "Покорми меня 😞\nПора удобрить "+plant)
	default:
		return Pick(language, "Reminder", "Напоминание"),
			Pick(language, "Time to look after "+plant, "Пора ухаживать за "+plant)
	}
}

// TomorrowText is the advance reminder for care due tomorrow.
func TomorrowText(language, plant, kind string) (title, body string) {
	action := KindAction(language, kind)
	return Pick(language, plant+": "+action+" tomorrow", plant+": завтра "+action),
		Pick(language, action+" for "+plant+" is due tomorrow", "Завтра пора "+action+" для "+plant)
}

// InThreeDaysText is the advance reminder for care due in three days.
func InThreeDaysText(language, plant, kind string) (title, body string) {
	action := KindAction(language, kind)
	return Pick(language, plant+": "+action+" in 3 days", plant+": через 3 дня "+action),
		Pick(language, action+" for "+plant+" is due in 3 days", "Через 3 дня пора "+action+" для "+plant)
}
