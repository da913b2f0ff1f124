package analytics

import (
	"sort"

	"github.com/google/uuid"
)

// authorKey groups rows by doctor. Rows without a doctor share the zero key,
// which cannot collide with a real author because known is false.
type authorKey struct {
	id    uuid.UUID
	known bool
}

// Leaderboard counts results per author and ranks authors by count,
// highest first. Ties keep first-seen order and the first name seen for an
// author sticks.
func Leaderboard(rows []AuthoredResultRow) []LeaderboardRow {
	index := make(map[authorKey]int)
	board := make([]LeaderboardRow, 0)

	for _, r := range rows {
		var key authorKey
		var authorID *uuid.UUID
		if r.AuthorID != nil {
			id := *r.AuthorID
			key = authorKey{id: id, known: true}
			authorID = &id
		}

		if i, ok := index[key]; ok {
			board[i].Total++
			continue
		}
		index[key] = len(board)
		board = append(board, LeaderboardRow{
			AuthorID:   authorID,
			AuthorName: r.AuthorName,
			Total:      1,
		})
	}

	sort.SliceStable(board, func(i, j int) bool {
		return board[i].Total > board[j].Total
	})

	top := 1
	for _, row := range board {
		if row.Total > top {
			top = row.Total
		}
	}
	for i := range board {
		board[i].Width = float64(board[i].Total) / float64(top)
	}
	return board
}
