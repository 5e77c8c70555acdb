package weather

import (
	"math"
	"sort"
	"time"

	"github.com/hrygo/weathersense/server/queryengine"
)

// buildHourlyEntries converts forecast slots to hourly points in the
// location's local time. Returns the points and the UTC offset in seconds.
func buildHourlyEntries(forecast *owForecastResponse) ([]HourlyPoint, int) {
	if forecast == nil {
		return nil, 0
	}
	shift := forecast.City.Timezone

	hourly := make([]HourlyPoint, 0, len(forecast.List))
	for _, entry := range forecast.List {
		if entry.Dt == 0 {
			continue
		}
		local := time.Unix(entry.Dt+int64(shift), 0).UTC()

		point := HourlyPoint{
			Date:        local.Format("2006-01-02"),
			Time:        local.Format("15:04"),
			LocalTime:   local.Format("2006-01-02 15:04"),
			Description: conditionDescription(entry.Weather),
		}
		if entry.Main.Temp != nil {
			point.TemperatureC = roundTo1(*entry.Main.Temp)
		}
		if entry.Main.Humidity != nil {
			humidity := int(*entry.Main.Humidity)
			point.HumidityPercent = &humidity
		}
		if entry.Wind.Speed != nil {
			point.WindSpeedMps = roundTo1(*entry.Wind.Speed)
		}
		if entry.Wind.Deg != nil {
			deg := *entry.Wind.Deg
			point.WindDeg = &deg
			point.WindDirection = windDirectionLabel(deg)
		}
		if entry.Pop != nil {
			pop := int(math.Round(*entry.Pop * 100))
			point.PrecipProbabilityPercent = &pop
		}
		point.StormPossible = queryengine.StormDescription(point.Description)
		hourly = append(hourly, point)
	}
	return hourly, shift
}

// buildDailyEntries aggregates hourly points into per-date summaries:
// min/max temperature, mean humidity, max wind, modal direction and
// description, max precipitation probability.
func buildDailyEntries(hourly []HourlyPoint) []DailyPoint {
	type bucket struct {
		temps        []float64
		humidity     []int
		wind         []float64
		pop          []int
		descriptions []string
		windDirs     []string
	}

	buckets := make(map[string]*bucket)
	for _, point := range hourly {
		if point.Date == "" {
			continue
		}
		b := buckets[point.Date]
		if b == nil {
			b = &bucket{}
			buckets[point.Date] = b
		}
		if point.TemperatureC != nil {
			b.temps = append(b.temps, *point.TemperatureC)
		}
		if point.HumidityPercent != nil {
			b.humidity = append(b.humidity, *point.HumidityPercent)
		}
		if point.WindSpeedMps != nil {
			b.wind = append(b.wind, *point.WindSpeedMps)
		}
		if point.PrecipProbabilityPercent != nil {
			b.pop = append(b.pop, *point.PrecipProbabilityPercent)
		}
		if point.Description != "" {
			b.descriptions = append(b.descriptions, point.Description)
		}
		if point.WindDirection != "" {
			b.windDirs = append(b.windDirs, point.WindDirection)
		}
	}

	dates := make([]string, 0, len(buckets))
	for date := range buckets {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	daily := make([]DailyPoint, 0, len(dates))
	for _, date := range dates {
		b := buckets[date]
		point := DailyPoint{
			Date:          date,
			Description:   "No description",
			WindDirection: modalValue(b.windDirs),
		}
		if len(b.temps) > 0 {
			minT, maxT := b.temps[0], b.temps[0]
			for _, t := range b.temps[1:] {
				if t < minT {
					minT = t
				}
				if t > maxT {
					maxT = t
				}
			}
			point.TempMinC = roundTo1(minT)
			point.TempMaxC = roundTo1(maxT)
		}
		if len(b.humidity) > 0 {
			sum := 0
			for _, h := range b.humidity {
				sum += h
			}
			mean := int(math.Round(float64(sum) / float64(len(b.humidity))))
			point.HumidityPercent = &mean
		}
		if len(b.wind) > 0 {
			maxW := b.wind[0]
			for _, w := range b.wind[1:] {
				if w > maxW {
					maxW = w
				}
			}
			point.WindSpeedMps = roundTo1(maxW)
		}
		if len(b.pop) > 0 {
			maxP := b.pop[0]
			for _, p := range b.pop[1:] {
				if p > maxP {
					maxP = p
				}
			}
			point.PrecipProbabilityPercent = &maxP
		}
		if modal := modalValue(b.descriptions); modal != "" {
			point.Description = modal
		}
		point.StormPossible = queryengine.StormDescription(point.Description)
		daily = append(daily, point)
	}
	return daily
}

// filterHourlyByDate keeps points whose date falls inside [start, end].
// ISO dates compare correctly as strings.
func filterHourlyByDate(points []HourlyPoint, start, end string) []HourlyPoint {
	var filtered []HourlyPoint
	for _, point := range points {
		if point.Date >= start && point.Date <= end {
			filtered = append(filtered, point)
		}
	}
	return filtered
}

func filterDailyByDate(points []DailyPoint, start, end string) []DailyPoint {
	var filtered []DailyPoint
	for _, point := range points {
		if point.Date >= start && point.Date <= end {
			filtered = append(filtered, point)
		}
	}
	return filtered
}

// modalValue returns the most frequent value, breaking ties by first
// occurrence.
func modalValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	counts := make(map[string]int, len(values))
	best := values[0]
	bestCount := 0
	for _, value := range values {
		counts[value]++
		if counts[value] > bestCount {
			best = value
			bestCount = counts[value]
		}
	}
	return best
}

func conditionDescription(conditions []owCondition) string {
	if len(conditions) == 0 || conditions[0].Description == "" {
		return "No description"
	}
	return conditions[0].Description
}

func roundTo1(value float64) *float64 {
	rounded := math.Round(value*10) / 10
	return &rounded
}
