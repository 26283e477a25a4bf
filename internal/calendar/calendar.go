// Package calendar buckets topic snapshots into a month grid by the
// zone-local day of their next review. It is a pure view over snapshots: the
// caller supplies the month, the zone and today's day key.
package calendar

import (
	"sort"
	"strings"
	"time"

	"github.com/example/revise/internal/dates"
	"github.com/example/revise/pkg/models"
)

// NoSubjectID groups topics that have no subject assigned.
const NoSubjectID = "__none__"

// maxVisibleSubjects caps the subject chips rendered inside one day cell;
// the rest aggregate into the overflow bucket.
const maxVisibleSubjects = 5

const fallbackSubjectColor = "#38bdf8"

// SubjectInfo is the calendar-facing slice of a subject.
type SubjectInfo struct {
	ID       string
	Name     string
	Color    string
	Icon     string
	ExamDate *time.Time
}

// SubjectAggregate is a subject with its topic count across the rendered
// period, used for the filter options list.
type SubjectAggregate struct {
	SubjectInfo
	Count int
}

// DayEntry groups one day's topics under a subject.
type DayEntry struct {
	Subject SubjectInfo
	Topics  []models.Topic
	Count   int
}

// Day is one cell of the month grid.
type Day struct {
	Date           time.Time
	DayKey         string
	DayNumber      int
	IsCurrentMonth bool
	IsToday        bool
	IsPast         bool
	// Subjects holds at most maxVisibleSubjects entries; the rest land in
	// OverflowSubjects.
	Subjects          []DayEntry
	OverflowSubjects  []DayEntry
	ExamSubjects      []SubjectInfo
	HasExam           bool
	HasOverdueBacklog bool
	TotalTopics       int
}

// Month is the complete rendered month: always whole weeks, so the grid is a
// rectangle of 7-day rows padded with adjacent-month days.
type Month struct {
	Weeks              [][]Day
	Days               []Day
	SubjectOptions     []SubjectAggregate
	HasVisibleContent  bool
	TotalVisibleTopics int
	GridStart          time.Time
	GridEnd            time.Time
	OverdueCount       int
}

// Params configures one month build.
//
// SelectedSubjectIDs distinguishes two deliberate states: a nil map means
// "no filter, show everything" while an empty map means "show none".
type Params struct {
	Topics             []models.Topic
	Subjects           []models.Subject
	Location           *time.Location
	MonthDate          time.Time
	SelectedSubjectIDs map[string]bool
	TodayKey           string
	// WeekStartsOn is 0 for Sunday, 1 for Monday.
	WeekStartsOn int
}

// BuildMonth assembles the month grid for the given parameters.
func BuildMonth(p Params) Month {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}

	infoByID := make(map[string]SubjectInfo, len(p.Subjects))
	for _, s := range p.Subjects {
		infoByID[s.ID] = SubjectInfo{ID: s.ID, Name: s.Name, Color: s.Color, Icon: s.Icon, ExamDate: s.ExamDate}
	}
	fallback := fallbackSubject(p.Subjects)
	if _, ok := infoByID[fallback.ID]; !ok {
		infoByID[fallback.ID] = fallback
	}

	selected := func(id string) bool {
		return p.SelectedSubjectIDs == nil || p.SelectedSubjectIDs[id]
	}

	// Bucket every topic by the local day of its next review.
	dayBuckets := make(map[string]map[string]*DayEntry)
	overdueCount := 0
	for _, topic := range p.Topics {
		info := resolveSubject(topic, infoByID, fallback)
		key := dates.DayKey(topic.NextReviewDate, loc)

		if key < p.TodayKey && selected(info.ID) {
			overdueCount++
		}

		bucket, ok := dayBuckets[key]
		if !ok {
			bucket = make(map[string]*DayEntry)
			dayBuckets[key] = bucket
		}
		entry, ok := bucket[info.ID]
		if !ok {
			entry = &DayEntry{Subject: info}
			bucket[info.ID] = entry
		}
		entry.Topics = append(entry.Topics, topic)
		entry.Count++
	}

	examsByDay := make(map[string][]SubjectInfo)
	for _, s := range p.Subjects {
		if s.ExamDate == nil {
			continue
		}
		info, ok := infoByID[s.ID]
		if !ok {
			continue
		}
		key := dates.DayKey(*s.ExamDate, loc)
		examsByDay[key] = append(examsByDay[key], info)
	}

	monthStart := dates.StartOfMonth(p.MonthDate, loc)
	monthEnd := dates.AddMonths(p.MonthDate, 1, loc)
	gridStart := dates.MonthGridStart(p.MonthDate, p.WeekStartsOn, loc)

	var days []Day
	subjectsInPeriod := make(map[string]bool)
	totalVisible := 0

	for cursor := gridStart; cursor.Before(monthEnd) || len(days)%7 != 0; cursor = cursor.AddDate(0, 0, 1) {
		key := dates.DayKey(cursor, loc)

		var entries []DayEntry
		if bucket, ok := dayBuckets[key]; ok {
			for _, entry := range bucket {
				subjectsInPeriod[entry.Subject.ID] = true
				if selected(entry.Subject.ID) {
					entries = append(entries, *entry)
				}
			}
		}
		sortEntries(entries)

		visible := entries
		var overflow []DayEntry
		if len(visible) > maxVisibleSubjects {
			overflow = visible[maxVisibleSubjects:]
			visible = visible[:maxVisibleSubjects]
		}

		var exams []SubjectInfo
		for _, info := range examsByDay[key] {
			subjectsInPeriod[info.ID] = true
			if selected(info.ID) {
				exams = append(exams, info)
			}
		}
		sort.Slice(exams, func(i, j int) bool { return lessName(exams[i].Name, exams[j].Name) })

		dayTotal := 0
		for _, entry := range entries {
			dayTotal += entry.Count
		}
		totalVisible += dayTotal

		days = append(days, Day{
			Date:              cursor,
			DayKey:            key,
			DayNumber:         cursor.Day(),
			IsCurrentMonth:    !cursor.Before(monthStart) && cursor.Before(monthEnd),
			IsToday:           key == p.TodayKey,
			IsPast:            key < p.TodayKey,
			Subjects:          visible,
			OverflowSubjects:  overflow,
			ExamSubjects:      exams,
			HasExam:           len(exams) > 0,
			HasOverdueBacklog: key == p.TodayKey && overdueCount > 0,
			TotalTopics:       dayTotal,
		})
	}

	weeks := make([][]Day, 0, len(days)/7)
	for i := 0; i < len(days); i += 7 {
		weeks = append(weeks, days[i:i+7])
	}

	month := Month{
		Weeks:              weeks,
		Days:               days,
		SubjectOptions:     subjectOptions(days, dayBuckets, infoByID, subjectsInPeriod),
		TotalVisibleTopics: totalVisible,
		GridStart:          gridStart,
		OverdueCount:       overdueCount,
	}
	if len(days) > 0 {
		month.GridEnd = days[len(days)-1].Date
	} else {
		month.GridEnd = monthStart
	}
	for _, day := range days {
		if len(day.Subjects) > 0 || len(day.OverflowSubjects) > 0 || len(day.ExamSubjects) > 0 {
			month.HasVisibleContent = true
			break
		}
	}
	return month
}

// subjectOptions aggregates per-subject topic counts across the rendered
// grid for subjects that appear in the period, ordered by name.
func subjectOptions(days []Day, dayBuckets map[string]map[string]*DayEntry, infoByID map[string]SubjectInfo, inPeriod map[string]bool) []SubjectAggregate {
	counts := make(map[string]int)
	for _, day := range days {
		bucket, ok := dayBuckets[day.DayKey]
		if !ok {
			continue
		}
		for id, entry := range bucket {
			if inPeriod[id] {
				counts[id] += entry.Count
			}
		}
	}

	options := make([]SubjectAggregate, 0, len(inPeriod))
	for id := range inPeriod {
		info, ok := infoByID[id]
		if !ok {
			continue
		}
		options = append(options, SubjectAggregate{SubjectInfo: info, Count: counts[id]})
	}
	sort.Slice(options, func(i, j int) bool { return lessName(options[i].Name, options[j].Name) })
	return options
}

// fallbackSubject picks the bucket for subject-less topics: a designated
// general subject when one exists, otherwise a synthetic one.
func fallbackSubject(subjects []models.Subject) SubjectInfo {
	if len(subjects) == 0 {
		return SubjectInfo{ID: NoSubjectID, Name: "General", Color: fallbackSubjectColor, Icon: "Sparkles"}
	}
	chosen := subjects[0]
	for _, s := range subjects {
		if s.ID == "subject-general" {
			chosen = s
			break
		}
	}
	return SubjectInfo{ID: chosen.ID, Name: chosen.Name, Color: chosen.Color, Icon: chosen.Icon, ExamDate: chosen.ExamDate}
}

func resolveSubject(topic models.Topic, infoByID map[string]SubjectInfo, fallback SubjectInfo) SubjectInfo {
	if topic.SubjectID == nil {
		return fallback
	}
	if info, ok := infoByID[*topic.SubjectID]; ok {
		return info
	}
	// Unknown reference: keep the id so filtering stays coherent but render
	// it with fallback styling.
	info := SubjectInfo{ID: *topic.SubjectID, Name: fallback.Name, Color: fallback.Color, Icon: fallback.Icon}
	infoByID[*topic.SubjectID] = info
	return info
}

func sortEntries(entries []DayEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return lessName(entries[i].Subject.Name, entries[j].Subject.Name)
	})
}

func lessName(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}
