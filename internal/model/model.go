package model

import "time"

type ProjectCategory string

const (
	CategorySoftware ProjectCategory = "SOFTWARE"
	CategoryFirmware ProjectCategory = "FIRMWARE"
)

func (c ProjectCategory) Valid() bool {
	return c == CategorySoftware || c == CategoryFirmware
}

type DeliveryChannel string

const (
	ChannelKakao DeliveryChannel = "KAKAO"
	ChannelPass  DeliveryChannel = "PASS"
)

func (c DeliveryChannel) Valid() bool {
	return c == ChannelKakao || c == ChannelPass
}

type Project struct {
	ID              int64           `json:"id"`
	Category        ProjectCategory `json:"category"`
	Title           string          `json:"title"`
	Slug            string          `json:"slug"`
	Summary         string          `json:"summary"`
	ContentMarkdown string          `json:"contentMarkdown"`
	GithubURL       string          `json:"githubUrl,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
