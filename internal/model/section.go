package model

import (
	"sort"
	"time"
)

// Section is one video row of a course section.
type Section struct {
	ID           string    `db:"id" json:"id"`
	CourseID     string    `db:"course_id" json:"courseId"`
	SectionNo    int       `db:"section_no" json:"sectionNo"`
	SectionTitle string    `db:"section_title" json:"section_title"`
	VideoNo      int       `db:"video_no" json:"videoNo"`
	VideoTitle   string    `db:"video_title" json:"video_title"`
	VideoTime    int       `db:"video_time" json:"video_time"`
	TotalTime    int       `db:"total_time" json:"total_time"`
	Video        string    `db:"video" json:"video"`
	VideoKey     string    `db:"video_key" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Group returns the (course, section) key the row belongs to.
func (s *Section) Group() SectionGroupKey {
	return SectionGroupKey{CourseID: s.CourseID, SectionNo: s.SectionNo}
}

// SectionGroupKey identifies the rows whose video_time is summed into total_time.
type SectionGroupKey struct {
	CourseID  string
	SectionNo int
}

// SortGroupKeys orders keys so locks are always taken in the same order.
func SortGroupKeys(keys []SectionGroupKey) []SectionGroupKey {
	out := make([]SectionGroupKey, 0, len(keys))
	seen := make(map[SectionGroupKey]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CourseID != out[j].CourseID {
			return out[i].CourseID < out[j].CourseID
		}
		return out[i].SectionNo < out[j].SectionNo
	})
	return out
}

// SectionVideo is a video entry inside a SectionGroup.
type SectionVideo struct {
	ID         string `json:"id"`
	VideoNo    int    `json:"videoNo"`
	VideoTitle string `json:"video_title"`
	VideoTime  int    `json:"video_time"`
	Video      string `json:"video"`
}

// SectionGroup is a section of a course with its videos ordered by number.
type SectionGroup struct {
	SectionNo    int            `json:"sectionNo"`
	SectionTitle string         `json:"section_title"`
	TotalTime    int            `json:"total_time"`
	Videos       []SectionVideo `json:"videos"`
}
