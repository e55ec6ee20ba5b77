package availability

import "github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"

// timeOfDayThresholds is checked top down; the first entry whose fromHour is
// at or below the slot's start hour wins.
var timeOfDayThresholds = []struct {
	fromHour int
	period   model.TimeOfDay
}{
	{17, model.Evening},
	{12, model.Afternoon},
	{0, model.Morning},
}

func ClassifyHour(hour int) model.TimeOfDay {
	for _, th := range timeOfDayThresholds {
		if hour >= th.fromHour {
			return th.period
		}
	}
	return model.Morning
}
