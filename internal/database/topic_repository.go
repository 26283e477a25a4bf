package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/revise/pkg/models"
	"github.com/jmoiron/sqlx"
)

// TopicRepository handles database operations for topics and their event log
type TopicRepository struct{}

// NewTopicRepository creates a new repository instance
func NewTopicRepository() *TopicRepository {
	return &TopicRepository{}
}

// topicRow adds the serialized interval ladder to the scanned topic.
type topicRow struct {
	models.Topic
	IntervalsCSV string `db:"intervals"`
}

// eventRow adds the owning topic id to the scanned event.
type eventRow struct {
	models.TopicEvent
	TopicID string `db:"topic_id"`
}

// GetAll returns all topics with their events attached, ordered by title
func (r *TopicRepository) GetAll() ([]models.Topic, error) {
	var rows []topicRow
	if err := DB.Select(&rows, "SELECT * FROM topics ORDER BY title"); err != nil {
		return nil, fmt.Errorf("failed to get topics: %w", err)
	}

	var events []eventRow
	if err := DB.Select(&events, "SELECT * FROM topic_events ORDER BY at"); err != nil {
		return nil, fmt.Errorf("failed to get topic events: %w", err)
	}
	byTopic := make(map[string][]models.TopicEvent)
	for _, e := range events {
		byTopic[e.TopicID] = append(byTopic[e.TopicID], e.TopicEvent)
	}

	topics := make([]models.Topic, len(rows))
	for i, row := range rows {
		topic := row.Topic
		topic.Intervals = parseIntervals(row.IntervalsCSV)
		topic.Events = byTopic[topic.ID]
		topics[i] = topic
	}
	return topics, nil
}

// GetByID returns a topic with its events, or nil when it does not exist
func (r *TopicRepository) GetByID(id string) (*models.Topic, error) {
	var row topicRow
	err := DB.Get(&row, rebind("SELECT * FROM topics WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}

	var events []eventRow
	err = DB.Select(&events, rebind("SELECT * FROM topic_events WHERE topic_id = ? ORDER BY at"), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get topic events: %w", err)
	}

	topic := row.Topic
	topic.Intervals = parseIntervals(row.IntervalsCSV)
	for _, e := range events {
		topic.Events = append(topic.Events, e.TopicEvent)
	}
	return &topic, nil
}

// Create inserts a new topic together with its initial events
func (r *TopicRepository) Create(topic *models.Topic) error {
	tx, err := DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	query := rebind(`
		INSERT INTO topics (
			id, title, notes, subject_id, intervals, interval_index,
			next_review_date, last_reviewed_at, stability, retrievability_target,
			reviews_count, created_at, started_at, auto_adjust_preference,
			schedule_mode, revise_now_last_used_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = tx.Exec(query,
		topic.ID,
		topic.Title,
		topic.Notes,
		topic.SubjectID,
		encodeIntervals(topic.Intervals),
		topic.IntervalIndex,
		topic.NextReviewDate,
		topic.LastReviewedAt,
		topic.Stability,
		topic.RetrievabilityTarget,
		topic.ReviewsCount,
		topic.CreatedAt,
		topic.StartedAt,
		topic.AutoAdjustPreference,
		topic.ScheduleMode,
		topic.ReviseNowLastUsedAt,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create topic: %w", err)
	}

	for _, event := range topic.Events {
		if err := insertEvent(tx, topic.ID, event); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SaveTransition persists the outcome of a review or skip transition: the
// updated topic row and the appended event commit together or not at all.
func (r *TopicRepository) SaveTransition(topic models.Topic, event models.TopicEvent) error {
	tx, err := DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if err := updateTopic(tx, topic); err != nil {
		tx.Rollback()
		return err
	}
	if err := insertEvent(tx, topic.ID, event); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ReplaceHistory persists a history rewrite: the topic row is updated and the
// stored event log is replaced wholesale by the topic's current events.
func (r *TopicRepository) ReplaceHistory(topic models.Topic) error {
	tx, err := DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if err := updateTopic(tx, topic); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec(rebind("DELETE FROM topic_events WHERE topic_id = ?"), topic.ID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear topic events: %w", err)
	}
	for _, event := range topic.Events {
		if err := insertEvent(tx, topic.ID, event); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes a topic and its events
func (r *TopicRepository) Delete(id string) error {
	tx, err := DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if _, err := tx.Exec(rebind("DELETE FROM topic_events WHERE topic_id = ?"), id); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete topic events: %w", err)
	}
	result, err := tx.Exec(rebind("DELETE FROM topics WHERE id = ?"), id)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete topic: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		tx.Rollback()
		return fmt.Errorf("topic %s not found", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadSnapshot reads the full engine input in one call
func LoadSnapshot() (*models.Snapshot, error) {
	topics, err := NewTopicRepository().GetAll()
	if err != nil {
		return nil, err
	}
	subjects, err := NewSubjectRepository().GetAll()
	if err != nil {
		return nil, err
	}
	return &models.Snapshot{Topics: topics, Subjects: subjects}, nil
}

func updateTopic(tx *sqlx.Tx, topic models.Topic) error {
	query := rebind(`
		UPDATE topics
		SET title = ?, notes = ?, subject_id = ?, intervals = ?,
			interval_index = ?, next_review_date = ?, last_reviewed_at = ?,
			stability = ?, retrievability_target = ?, reviews_count = ?,
			started_at = ?, auto_adjust_preference = ?, schedule_mode = ?,
			revise_now_last_used_at = ?
		WHERE id = ?
	`)
	result, err := tx.Exec(query,
		topic.Title,
		topic.Notes,
		topic.SubjectID,
		encodeIntervals(topic.Intervals),
		topic.IntervalIndex,
		topic.NextReviewDate,
		topic.LastReviewedAt,
		topic.Stability,
		topic.RetrievabilityTarget,
		topic.ReviewsCount,
		topic.StartedAt,
		topic.AutoAdjustPreference,
		topic.ScheduleMode,
		topic.ReviseNowLastUsedAt,
		topic.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update topic: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("topic %s not found", topic.ID)
	}
	return nil
}

func insertEvent(tx *sqlx.Tx, topicID string, event models.TopicEvent) error {
	query := rebind(`
		INSERT INTO topic_events (
			id, topic_id, type, at, notes, quality, interval_days,
			resulting_stability, target_retrievability, next_review_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := tx.Exec(query,
		event.ID,
		topicID,
		event.Type,
		event.At,
		event.Notes,
		event.Quality,
		event.IntervalDays,
		event.ResultingStability,
		event.TargetRetrievability,
		event.NextReviewAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert topic event: %w", err)
	}
	return nil
}

func encodeIntervals(intervals []int) string {
	parts := make([]string, len(intervals))
	for i, days := range intervals {
		parts[i] = strconv.Itoa(days)
	}
	return strings.Join(parts, ",")
}

func parseIntervals(csv string) []int {
	if csv == "" {
		return nil
	}
	var intervals []int
	for _, part := range strings.Split(csv, ",") {
		days, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		intervals = append(intervals, days)
	}
	return intervals
}
