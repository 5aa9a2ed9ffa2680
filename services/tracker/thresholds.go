package tracker

import (
	"strconv"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"
)

type ThresholdKind string

const (
	// KindMilestone crosses once the statistic reaches the value.
	KindMilestone ThresholdKind = "milestone"
	// KindPositionMilestone crosses once the position is at or better than
	// the value, lower positions are better.
	KindPositionMilestone ThresholdKind = "position_milestone"
	// KindRank grants Reward when Condition holds.
	KindRank ThresholdKind = "rank"
)

type RankFlag string

const (
	FlagGenre RankFlag = "genre"
	FlagMain  RankFlag = "main"
	FlagTop10 RankFlag = "top10"
)

// RankCondition holds when the story has at least MinFollowers followers or
// when Flag is set on its merged stats.
type RankCondition struct {
	MinFollowers int64    `json:"min_followers"`
	Flag         RankFlag `json:"flag"`
}

const (
	ReasonFollowers = "followers"
	ReasonFlag      = "flag"
)

func (c RankCondition) flagged(stats MergedStats) bool {
	switch c.Flag {
	case FlagGenre:
		return stats.RSGenre
	case FlagMain:
		return stats.RSMain
	case FlagTop10:
		return stats.RSTop10
	}
	return false
}

// Reason reports which half of the condition holds, followers take
// precedence. It returns "" when the condition does not hold.
func (c RankCondition) Reason(stats MergedStats) string {
	if c.MinFollowers > 0 && value(stats.Followers) >= c.MinFollowers {
		return ReasonFollowers
	}
	if c.flagged(stats) {
		return ReasonFlag
	}
	return ""
}

func (c RankCondition) Holds(stats MergedStats) bool {
	return c.Reason(stats) != ""
}

// Threshold is one entry of the announcement table. Message is a
// text/template executed with MessageParams.
type Threshold struct {
	Key       string         `json:"key"`
	Kind      ThresholdKind  `json:"kind"`
	Stat      string         `json:"stat"`
	Value     int64          `json:"value"`
	Message   string         `json:"message"`
	Reward    Rank           `json:"reward,omitempty"`
	Condition *RankCondition `json:"condition,omitempty"`
}

// Crosses reports whether current crosses the threshold. A current of 0
// never crosses.
func (t Threshold) Crosses(current int64) bool {
	if current <= 0 {
		return false
	}
	if t.Kind == KindPositionMilestone {
		return current <= t.Value
	}
	return current >= t.Value
}

// Implies reports whether announcing t makes other redundant, that is,
// other is the same statistic and not further than t.
func (t Threshold) Implies(other Threshold) bool {
	if other.Stat != t.Stat {
		return false
	}
	if t.Kind == KindPositionMilestone {
		return other.Value >= t.Value
	}
	return other.Value <= t.Value
}

// further reports whether t is a further milestone than other.
func (t Threshold) further(other Threshold) bool {
	if t.Kind == KindPositionMilestone {
		return t.Value < other.Value
	}
	return t.Value > other.Value
}

type MessageParams struct {
	MemberID   string
	MemberName string
	Story      string
	Value      int64
	Stats      MergedStats
	// which half of a rank condition holds, see RankCondition.Reason
	Reason string
}

var templateFuncs = template.FuncMap{
	"comma": humanize.Comma,
	"genres": func(list []GenrePosition) string {
		parts := make([]string, len(list))
		for i, g := range list {
			parts[i] = g.Genre
			if g.Position != nil {
				parts[i] += " (#" + humanize.Comma(int64(*g.Position)) + ")"
			}
		}
		return strings.Join(parts, ", ")
	},
}

func render(name, text string, params any) (string, error) {
	tmpl, err := template.New(name).Funcs(templateFuncs).Parse(text)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	err = tmpl.Execute(&out, params)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

func (t Threshold) Render(params MessageParams) (string, error) {
	return render(t.Key, t.Message, params)
}

const (
	followersMessage   = "🎉 {{.MemberName}}'s story **{{.Story}}** just passed {{comma .Value}} followers!"
	totalViewsMessage  = "👀 {{.MemberName}}'s story **{{.Story}}** just passed {{comma .Value}} total views!"
	viewsMessage       = "👀 {{.MemberName}}'s story **{{.Story}}** just passed {{comma .Value}} views!"
	wordCountMessage   = "{{.MemberName}}'s story **{{.Story}}** just passed {{comma .Value}} words!"
	rsPositionMessage  = "🌟 {{.MemberName}}'s story **{{.Story}}** just reached {{if eq .Value 1}}#1{{else}}the Top {{.Value}}{{end}} on Rising Stars!"
	mainListingMessage = "**<@{{.MemberID}}>'s story {{.Story}} has reached Rising Stars Main at position #{{with .Stats.RSPosition}}{{.}}{{else}}unknown{{end}}! 🎉**"

	bRankMessage = "🎉 Congrats <@{{.MemberID}}>! You have achieved **B-Rank** with your story **{{.Story}}**" +
		"{{if eq .Reason \"followers\"}} by reaching over 500 followers!" +
		"{{else if eq .Reason \"flag\"}} by appearing on a Rising Stars genre list!{{else}}!{{end}}" +
		"{{with .Stats.RSGenreList}}\nWe've detected your story at: {{genres .}}{{end}}"
	aRankMessage = "🎉 Congrats <@{{.MemberID}}>! You have achieved **A-Rank** with your story **{{.Story}}**" +
		"{{if eq .Reason \"followers\"}} by reaching over 1,000 followers!" +
		"{{else if eq .Reason \"flag\"}} by appearing on the Rising Stars main page!{{else}}!{{end}}"
	sRankMessage = "🎉 Congrats <@{{.MemberID}}>! You have achieved the legendary **S-Rank** with your story **{{.Story}}**" +
		"{{if eq .Reason \"followers\"}} by reaching over 2,000 followers!" +
		"{{else if eq .Reason \"flag\"}} by reaching the Top 10 on Rising Stars main!{{else}}!{{end}}"
)

// RenderMainListing renders the announcement for a story that appeared on
// the main Rising Stars list.
func RenderMainListing(params MessageParams) (string, error) {
	return render("main-listing", mainListingMessage, params)
}

func milestone(stat string, value int64, message string) Threshold {
	return Threshold{
		Key:     stat + "-" + strconv.FormatInt(value, 10),
		Kind:    KindMilestone,
		Stat:    stat,
		Value:   value,
		Message: message,
	}
}

// DefaultThresholds returns the announcement table in evaluation order.
func DefaultThresholds() []Threshold {
	return []Threshold{
		milestone("followers", 500, followersMessage),
		milestone("followers", 1000, followersMessage),
		milestone("followers", 2000, followersMessage),
		milestone("totalViews", 1000, totalViewsMessage),
		milestone("totalViews", 50000, totalViewsMessage),
		milestone("totalViews", 100000, viewsMessage),
		milestone("totalViews", 500000, viewsMessage),
		milestone("totalViews", 1000000, viewsMessage),
		milestone("wordCount", 50000, wordCountMessage),
		milestone("wordCount", 100000, wordCountMessage),
		milestone("wordCount", 500000, wordCountMessage),
		milestone("wordCount", 1000000, wordCountMessage),
		{Key: "rsPosition-50", Kind: KindPositionMilestone, Stat: "rsPosition", Value: 50, Message: rsPositionMessage},
		{Key: "rsPosition-10", Kind: KindPositionMilestone, Stat: "rsPosition", Value: 10, Message: rsPositionMessage},
		{Key: "rsPosition-1", Kind: KindPositionMilestone, Stat: "rsPosition", Value: 1, Message: rsPositionMessage},
		{
			Key: "b-rank", Kind: KindRank, Stat: "rewardThreshold", Value: 1,
			Message: bRankMessage, Reward: RankB,
			Condition: &RankCondition{MinFollowers: 500, Flag: FlagGenre},
		},
		{
			Key: "a-rank", Kind: KindRank, Stat: "rewardThreshold", Value: 2,
			Message: aRankMessage, Reward: RankA,
			Condition: &RankCondition{MinFollowers: 1000, Flag: FlagMain},
		},
		{
			Key: "s-rank", Kind: KindRank, Stat: "rewardThreshold", Value: 3,
			Message: sRankMessage, Reward: RankS,
			Condition: &RankCondition{MinFollowers: 2000, Flag: FlagTop10},
		},
	}
}
