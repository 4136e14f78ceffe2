// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	AtWeekBegin  = "@weekbegin"
	AtWeekEnd    = "@weekend"
	AtMonthBegin = "@monthbegin"
	AtMonthEnd   = "@monthend"

	// defaultTime is used when a spec only holds a date modifier
	defaultTime = "0 18"

	maxIters = 5000
)

// Schedule enables calendar aware scheduling of refresh jobs. It supports schedules via the standard
// CRON format of: Minutes(Min) Hours(H) DayOfMonth(DoM) Month(M) DayOfWeek(DoW)
// See: https://en.wikipedia.org/wiki/Cron
//
// Missing trailing fields default to '*'. Additional date modifiers restrict the days the schedule fires on:
//
//	@weekbegin  - first weekday (Mon-Fri) of the week
//	@weekend    - last weekday of the week
//	@monthbegin - first weekday of the month
//	@monthend   - last weekday of the month
//
// A spec holding only a date modifier fires at 18:00.
//
// Examples:
//   - every 5 minutes: */5
//   - 6pm on the last weekday of the month: @monthend
//   - 9:30 on the first weekday of the month: @monthbegin 30 9
type Schedule struct {
	Spec     string
	TimeSpec string
	DateFlag string

	schedule cron.Schedule
	loc      *time.Location
}

// New parses spec; times are evaluated in loc (UTC when nil)
func New(spec string, loc *time.Location) (*Schedule, error) {
	if loc == nil {
		loc = time.UTC
	}

	tokens := strings.Fields(spec)
	if len(tokens) == 0 {
		return nil, ErrEmptySpec
	}

	timeTokens := make([]string, 0, 5)
	dateFlag := ""
	for _, token := range tokens {
		if token[0] != '@' {
			timeTokens = append(timeTokens, token)
			continue
		}

		switch token {
		case AtWeekBegin, AtWeekEnd, AtMonthBegin, AtMonthEnd:
			if dateFlag != "" {
				return nil, ErrConflictingModifiers
			}
			dateFlag = token
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownModifier, token)
		}
	}

	if len(timeTokens) == 0 {
		timeTokens = strings.Fields(defaultTime)
	}

	timeSpec := expandBriefFormat(timeTokens)

	specParser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	parsed, err := specParser.Parse(timeSpec)
	if err != nil {
		log.Error().Err(err).Str("TimeSpec", timeSpec).Str("Spec", spec).Msg("robfig/cron could not parse timespec")
		return nil, err
	}

	return &Schedule{
		Spec:     spec,
		TimeSpec: timeSpec,
		DateFlag: dateFlag,
		schedule: parsed,
		loc:      loc,
	}, nil
}

// Matches returns true if the date of t satisfies the date modifier of the schedule. The time of day is ignored.
func (s *Schedule) Matches(t time.Time) bool {
	t = t.In(s.loc)
	if s.DateFlag == "" {
		return true
	}

	if !isWeekday(t) {
		return false
	}

	switch s.DateFlag {
	case AtWeekBegin:
		return !isWeekday(t.AddDate(0, 0, -1)) || t.Weekday() == time.Monday
	case AtWeekEnd:
		return !isWeekday(t.AddDate(0, 0, 1)) || t.Weekday() == time.Friday
	case AtMonthBegin:
		return sameDay(t, firstWeekdayOfMonth(t))
	case AtMonthEnd:
		return sameDay(t, lastWeekdayOfMonth(t))
	}

	return false
}

// Next returns the first activation time after t
func (s *Schedule) Next(t time.Time) (time.Time, error) {
	next := s.schedule.Next(t.In(s.loc))
	for ii := 0; !s.Matches(next); ii++ {
		if ii > maxIters || next.IsZero() {
			return time.Time{}, fmt.Errorf("%w: %s", ErrNoMatch, s.Spec)
		}
		next = s.schedule.Next(next)
	}
	return next, nil
}

func expandBriefFormat(tokens []string) string {
	for len(tokens) < 5 {
		tokens = append(tokens, "*")
	}
	return strings.Join(tokens, " ")
}

func isWeekday(t time.Time) bool {
	return t.Weekday() != time.Saturday && t.Weekday() != time.Sunday
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func firstWeekdayOfMonth(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	for !isWeekday(day) {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

func lastWeekdayOfMonth(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, -1)
	for !isWeekday(day) {
		day = day.AddDate(0, 0, -1)
	}
	return day
}
