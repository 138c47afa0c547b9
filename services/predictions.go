package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sathvikreddy369/sign-language/constants"
	"github.com/sathvikreddy369/sign-language/inference"
	"github.com/sathvikreddy369/sign-language/models"
)

var (
	ErrModelNotLoaded = errors.New("Model not loaded")
	ErrBadImage       = errors.New("Failed to preprocess image")
)

const (
	defaultPage     = 1
	defaultPageSize = 25
	maxPageSize     = 200
	topK            = 5

	activityWindow = 15 * time.Minute
)

type PredictionService interface {
	ModelLoaded() bool
	Predict(ctx context.Context, rawImage string, callerID *uint, clientIP string) (*models.PredictResponse, error)
	PredictBatch(ctx context.Context, images []string, callerID *uint, clientIP string) ([]models.BatchResult, error)
	List(ctx context.Context, filters models.PredictionFilters, role string, callerID uint) (*models.PredictionPage, error)
	Summary(ctx context.Context) (*models.SummaryStats, error)
}

type predictionService struct {
	db     *gorm.DB
	engine inference.Engine
}

func NewPredictionService(db *gorm.DB, engine inference.Engine) PredictionService {
	return &predictionService{db: db, engine: engine}
}

func (s *predictionService) ModelLoaded() bool {
	return s.engine != nil
}

// Predict runs one inference attempt and records its outcome, successful or
// not. The log write is best-effort and never fails the request.
func (s *predictionService) Predict(ctx context.Context, rawImage string, callerID *uint, clientIP string) (*models.PredictResponse, error) {
	if s.engine == nil {
		return nil, ErrModelNotLoaded
	}

	start := time.Now()

	img, err := decodeImage(rawImage)
	if err != nil {
		s.record(ctx, failureEntry(callerID, clientIP, err), callerID)
		return nil, err
	}

	probs, err := s.engine.Predict(ctx, img)
	if err != nil {
		s.record(ctx, failureEntry(callerID, clientIP, err), callerID)
		return nil, err
	}

	pred, err := inference.Interpret(probs, topK)
	if err != nil {
		s.record(ctx, failureEntry(callerID, clientIP, err), callerID)
		return nil, err
	}

	latencyMs := msSince(start)
	top := pred.TopMap()

	entry := successEntry(callerID, clientIP, pred.Label, pred.Confidence, latencyMs)
	entry.TopPredictions = models.JSONMap(top)
	s.record(ctx, entry, callerID)

	return &models.PredictResponse{
		Success:        true,
		Prediction:     pred.Label,
		Confidence:     pred.Confidence,
		TopPredictions: top,
		LatencyMs:      latencyMs,
	}, nil
}

// PredictBatch processes images sequentially; one item's failure does not
// abort the rest. All log rows are flushed in a single commit at the end.
func (s *predictionService) PredictBatch(ctx context.Context, images []string, callerID *uint, clientIP string) ([]models.BatchResult, error) {
	if s.engine == nil {
		return nil, ErrModelNotLoaded
	}

	results := make([]models.BatchResult, 0, len(images))
	pending := make([]models.PredictionLog, 0, len(images))

	for _, raw := range images {
		img, err := decodeImage(raw)
		if err != nil {
			results = append(results, models.BatchResult{Prediction: nil, Confidence: 0.0, Error: ErrBadImage.Error()})
			pending = append(pending, *failureEntry(callerID, clientIP, err))
			continue
		}

		start := time.Now()
		probs, err := s.engine.Predict(ctx, img)
		if err != nil {
			results = append(results, models.BatchResult{Prediction: nil, Confidence: 0.0, Error: err.Error()})
			pending = append(pending, *failureEntry(callerID, clientIP, err))
			continue
		}
		latencyMs := msSince(start)

		pred, err := inference.Interpret(probs, topK)
		if err != nil {
			results = append(results, models.BatchResult{Prediction: nil, Confidence: 0.0, Error: err.Error()})
			pending = append(pending, *failureEntry(callerID, clientIP, err))
			continue
		}

		label := pred.Label
		results = append(results, models.BatchResult{Prediction: &label, Confidence: pred.Confidence})
		pending = append(pending, *successEntry(callerID, clientIP, label, pred.Confidence, latencyMs))
	}

	if len(pending) > 0 {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&pending).Error; err != nil {
				return err
			}
			return stampActivity(tx, callerID)
		})
		if err != nil {
			log.Printf("failed to log batch predictions: %v", err)
		}
	}

	return results, nil
}

// record appends exactly one log entry for an inference attempt and
// refreshes the caller's activity stamp. Persistence failures are logged and
// swallowed.
func (s *predictionService) record(ctx context.Context, entry *models.PredictionLog, callerID *uint) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		return stampActivity(tx, callerID)
	})
	if err != nil {
		log.Printf("failed to log prediction: %v", err)
	}
}

func stampActivity(tx *gorm.DB, callerID *uint) error {
	if callerID == nil {
		return nil
	}
	return tx.Model(&models.User{}).
		Where("id = ?", *callerID).
		Update("last_activity_at", time.Now().UTC()).Error
}

// List returns one page of prediction logs. Non-admin callers are always
// scoped to their own rows; unparsable filter values are ignored.
func (s *predictionService) List(ctx context.Context, filters models.PredictionFilters, role string, callerID uint) (*models.PredictionPage, error) {
	q := s.db.WithContext(ctx).Model(&models.PredictionLog{})

	if role != string(constants.RoleAdmin) {
		q = q.Where("user_id = ?", callerID)
	} else {
		if filters.UserID != "" {
			if id, err := strconv.Atoi(filters.UserID); err == nil {
				q = q.Where("user_id = ?", id)
			}
		}
		if filters.Email != "" {
			var u models.User
			err := s.db.WithContext(ctx).
				Where("email = ?", strings.ToLower(strings.TrimSpace(filters.Email))).
				First(&u).Error
			if err == nil {
				q = q.Where("user_id = ?", u.ID)
			} else {
				// Unknown email must match nothing, not everything.
				q = q.Where("user_id = -1")
			}
		}
	}

	if filters.Label != "" {
		q = q.Where("label = ?", filters.Label)
	}
	if filters.MinConfidence != "" {
		if v, err := strconv.ParseFloat(filters.MinConfidence, 64); err == nil {
			q = q.Where("confidence >= ?", v)
		}
	}
	if filters.MaxConfidence != "" {
		if v, err := strconv.ParseFloat(filters.MaxConfidence, 64); err == nil {
			q = q.Where("confidence <= ?", v)
		}
	}
	if filters.Success != "" {
		switch strings.ToLower(filters.Success) {
		case "true", "1":
			q = q.Where("success = ?", true)
		case "false", "0":
			q = q.Where("success = ?", false)
		}
	}
	if t, ok := parseISO(filters.Start); ok {
		q = q.Where("timestamp >= ?", t)
	}
	if t, ok := parseISO(filters.End); ok {
		q = q.Where("timestamp <= ?", t)
	}

	page := parsePage(filters.Page)
	pageSize := parsePageSize(filters.PageSize)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	items := make([]models.PredictionLog, 0, pageSize)
	err := q.Order("timestamp DESC, id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &models.PredictionPage{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Items:    items,
	}, nil
}

// Summary computes the dashboard snapshot. Averages are nil when no row
// qualifies; active sessions are recomputed against a trailing 15-minute
// window on every call.
func (s *predictionService) Summary(ctx context.Context) (*models.SummaryStats, error) {
	stats := &models.SummaryStats{}
	database := s.db.WithContext(ctx)

	if err := database.Model(&models.PredictionLog{}).Count(&stats.TotalPredictions).Error; err != nil {
		return nil, err
	}

	var avgConfidence sql.NullFloat64
	err := database.Model(&models.PredictionLog{}).
		Where("success = ?", true).
		Select("AVG(confidence)").
		Scan(&avgConfidence).Error
	if err != nil {
		return nil, err
	}
	if avgConfidence.Valid {
		stats.AverageConfidence = &avgConfidence.Float64
	}

	var avgLatency sql.NullFloat64
	err = database.Model(&models.PredictionLog{}).
		Select("AVG(latency_ms)").
		Scan(&avgLatency).Error
	if err != nil {
		return nil, err
	}
	if avgLatency.Valid {
		stats.AverageLatencyMs = &avgLatency.Float64
	}

	if err := database.Model(&models.User{}).Count(&stats.UsersCount).Error; err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().Add(-activityWindow)
	err = database.Model(&models.User{}).
		Where("last_activity_at IS NOT NULL AND last_activity_at > ?", cutoff).
		Count(&stats.ActiveSessions).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func successEntry(callerID *uint, clientIP, label string, confidence, latencyMs float64) *models.PredictionLog {
	return &models.PredictionLog{
		UserID:     callerID,
		Timestamp:  time.Now().UTC(),
		Label:      &label,
		Confidence: &confidence,
		LatencyMs:  &latencyMs,
		Success:    true,
		ClientIP:   optional(clientIP),
	}
}

func failureEntry(callerID *uint, clientIP string, cause error) *models.PredictionLog {
	msg := cause.Error()
	return &models.PredictionLog{
		UserID:       callerID,
		Timestamp:    time.Now().UTC(),
		Success:      false,
		ErrorMessage: &msg,
		ClientIP:     optional(clientIP),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func decodeImage(data string) ([]byte, error) {
	// Drop any data-URL prefix such as "data:image/jpeg;base64,".
	if i := strings.IndexByte(data, ','); i >= 0 {
		data = data[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	if len(raw) == 0 {
		return nil, ErrBadImage
	}
	return raw, nil
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseISO(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parsePage(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultPage
	}
	if n < 1 {
		return 1
	}
	return n
}

func parsePageSize(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultPageSize
	}
	if n < 1 {
		n = 1
	}
	if n > maxPageSize {
		n = maxPageSize
	}
	return n
}
