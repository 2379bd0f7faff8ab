package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const DateLayout = "2006-01-02"

// DateRange is an inclusive span of UTC calendar days.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (d DateRange) start() time.Time { return truncateDay(d.From) }
func (d DateRange) end() time.Time   { return truncateDay(d.To).AddDate(0, 0, 1) }

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type HourlyCount struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

type ZoneCount struct {
	ZoneID     uint   `json:"zone_id"`
	ZoneType   string `json:"zone_type"`
	CameraName string `json:"camera_name"`
	Count      int64  `json:"count" gorm:"column:alert_count"`
}

// AlertReportRow is one alert joined with its zone and camera.
type AlertReportRow struct {
	AlertID     uint
	AlertTime   time.Time
	PersonCount int
	VideoURL    string
	ZoneID      uint
	ZoneType    string
	CameraName  string
}

// StatsRepository serves the simple aggregates behind /stats. Every query
// joins up to cameras.user_id so totals never include another tenant.
type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) ReportRows(ctx context.Context, userID uint, rng DateRange) ([]AlertReportRow, error) {
	rows := []AlertReportRow{}
	err := r.db.WithContext(ctx).
		Table("alerts").
		Select("alerts.id AS alert_id, alerts.alert_time AS alert_time, alerts.person_count AS person_count, " +
			"alerts.video_url AS video_url, zones.id AS zone_id, zones.type AS zone_type, cameras.camera_name AS camera_name").
		Scopes(ownedAlerts(userID)).
		Where("alerts.alert_time >= ? AND alerts.alert_time < ?", rng.start(), rng.end()).
		Order("alerts.alert_time, alerts.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loading alert rows: %w", err)
	}
	return rows, nil
}

// DailyAlertCounts returns one entry per day in the range, zero-filled.
func (r *StatsRepository) DailyAlertCounts(ctx context.Context, userID uint, rng DateRange) ([]DailyCount, error) {
	return r.dailyTotals(ctx, userID, rng, func(int) int64 { return 1 })
}

// DailyPersonCounts sums person_count per day in the range, zero-filled.
func (r *StatsRepository) DailyPersonCounts(ctx context.Context, userID uint, rng DateRange) ([]DailyCount, error) {
	return r.dailyTotals(ctx, userID, rng, func(persons int) int64 { return int64(persons) })
}

// HourlyDistribution always returns 24 buckets, hour 0 first.
func (r *StatsRepository) HourlyDistribution(ctx context.Context, userID uint, rng DateRange) ([]HourlyCount, error) {
	out := make([]HourlyCount, 24)
	for hour := range out {
		out[hour].Hour = hour
	}
	err := r.eachAlert(ctx, userID, rng, func(at time.Time, _ int) {
		out[at.UTC().Hour()].Count++
	})
	if err != nil {
		return nil, fmt.Errorf("hourly distribution: %w", err)
	}
	return out, nil
}

// AlertsByZone counts alerts per zone, busiest first.
func (r *StatsRepository) AlertsByZone(ctx context.Context, userID uint, rng DateRange) ([]ZoneCount, error) {
	out := []ZoneCount{}
	err := r.db.WithContext(ctx).
		Table("alerts").
		Select("zones.id AS zone_id, zones.type AS zone_type, cameras.camera_name AS camera_name, COUNT(alerts.id) AS alert_count").
		Scopes(ownedAlerts(userID)).
		Where("alerts.alert_time >= ? AND alerts.alert_time < ?", rng.start(), rng.end()).
		Group("zones.id, zones.type, cameras.camera_name").
		Order("alert_count DESC, zones.id").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("counting alerts by zone: %w", err)
	}
	return out, nil
}

func (r *StatsRepository) dailyTotals(ctx context.Context, userID uint, rng DateRange, weight func(persons int) int64) ([]DailyCount, error) {
	out := zeroDays(rng)
	first := rng.start()
	err := r.eachAlert(ctx, userID, rng, func(at time.Time, persons int) {
		if i := int(truncateDay(at).Sub(first).Hours() / 24); i >= 0 && i < len(out) {
			out[i].Count += weight(persons)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}
	return out, nil
}

// eachAlert streams alert_time and person_count of the caller's alerts in
// the range without holding the result set in memory.
func (r *StatsRepository) eachAlert(ctx context.Context, userID uint, rng DateRange, fn func(at time.Time, persons int)) error {
	rows, err := r.db.WithContext(ctx).
		Table("alerts").
		Select("alerts.alert_time, alerts.person_count").
		Scopes(ownedAlerts(userID)).
		Where("alerts.alert_time >= ? AND alerts.alert_time < ?", rng.start(), rng.end()).
		Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			at      time.Time
			persons int
		)
		if err := rows.Scan(&at, &persons); err != nil {
			return err
		}
		fn(at, persons)
	}
	return rows.Err()
}

func zeroDays(rng DateRange) []DailyCount {
	var out []DailyCount
	for day := rng.start(); day.Before(rng.end()); day = day.AddDate(0, 0, 1) {
		out = append(out, DailyCount{Date: day.Format(DateLayout)})
	}
	return out
}
