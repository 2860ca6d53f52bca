// Package akasha models the Akasha Database Spiral Abyss statistics payload.
package akasha

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Number is a numeric value the payload may send quoted or bare. It keeps the upstream
// text so values render exactly as published.
type Number string

func (n *Number) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(data, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Number(s)
		return nil
	}
	var f json.Number
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f.String())
	return nil
}

// Float parses the value. Unparseable values read as zero.
func (n Number) Float() float64 {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0
	}
	return f
}

func (n Number) String() string {
	return string(n)
}

// Team is one team composition with its usage counts.
type Team struct {
	AllCount          int    `json:"ac"`
	MaxStarRate       Number `json:"mr"`
	UpCount           Number `json:"uc"`
	DownCount         Number `json:"dc"`
	UpDown            Number `json:"ud"`
	UpMaxStarRate     Number `json:"umr"`
	DownMaxStarRate   Number `json:"dmr"`
	CharacterShortIDs []int  `json:"tl"`
}

// AvatarIDs returns the full avatar ids of the team members.
func (t Team) AvatarIDs() []int {
	ids := make([]int, len(t.CharacterShortIDs))
	for i, short := range t.CharacterShortIDs {
		ids[i] = AvatarIDBase + short
	}
	return ids
}

// AvatarIDBase turns a team's short character id into an avatar id.
const AvatarIDBase = 10000000

// TotalView is the period summary.
type TotalView struct {
	AvgStar               Number `json:"avg_star"`
	AvgBattleCount        Number `json:"avg_battle_count"`
	AvgMaxStarBattleCount Number `json:"avg_maxstar_battle_count"`
	PassRate              Number `json:"pass_rate"`
	MaxStarRate           Number `json:"maxstar_rate"`
	MaxStar12Rate         Number `json:"maxstar_12_rate"`
	PersonWar             int    `json:"person_war"`
	PersonPass            int    `json:"person_pass"`
	MaxStarPerson         int    `json:"maxstar_person"`
}

// LastRate holds the summary's change against the previous period.
type LastRate struct {
	AvgStar               Number `json:"avg_star"`
	PassRate              Number `json:"pass_rate"`
	MaxStarRate           Number `json:"maxstar_rate"`
	AvgBattleCount        Number `json:"avg_battle_count"`
	AvgMaxStarBattleCount Number `json:"avg_maxstar_battle_count"`
	MaxStar12Rate         Number `json:"maxstar_12_rate"`
}

// LevelSeries is a per-level percentage series.
type LevelSeries struct {
	Title  string   `json:"title"`
	Values []string `json:"y_list"`
	Levels []string `json:"x_list"`
}

// LevelData breaks results down by player level.
type LevelData struct {
	PlayerLevel struct {
		MaxStar LevelSeries `json:"maxstar_player_data"`
		Pass    LevelSeries `json:"pass_player_data"`
	} `json:"player_level_data"`
	PlayerCount struct {
		Counts []int    `json:"player_count_data"`
		Levels []string `json:"level_data"`
	} `json:"palyer_count_level_data"`
}

// Character is one entry of the usage ranking.
type Character struct {
	AvatarID              int     `json:"avatar_id"`
	MaxStarPersonHadCount int     `json:"maxstar_person_had_count"`
	MaxStarPersonUseCount int     `json:"maxstar_person_use_count"`
	Value                 float64 `json:"value"`
	UsedIndex             int     `json:"used_index"`
	Name                  string  `json:"name"`
	EnName                string  `json:"en_name"`
	Icon                  string  `json:"icon"`
	Element               string  `json:"element"`
	Rarity                int     `json:"rarity"`
}

// Data is the full statistics payload.
type Data struct {
	ScheduleID          int         `json:"schedule_id"`
	ModifyTime          string      `json:"modify_time"`
	ScheduleVersionDesc string      `json:"schedule_version_desc"`
	Teams               []Team      `json:"team_list"`
	TeamsUp             []Team      `json:"team_up_list"`
	TeamsDown           []Team      `json:"team_down_list"`
	TotalView           TotalView   `json:"abyss_total_view"`
	LastRate            LastRate    `json:"last_rate"`
	LevelData           LevelData   `json:"level_data"`
	Characters          []Character `json:"character_used_list"`
}

// Character looks up a ranked character by avatar id.
func (d *Data) Character(avatarID int) (Character, bool) {
	for _, c := range d.Characters {
		if c.AvatarID == avatarID {
			return c, true
		}
	}
	return Character{}, false
}
