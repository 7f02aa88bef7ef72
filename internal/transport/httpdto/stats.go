package httpdto

// StatsOverviewResponse is returned for GET /admin/stats
type StatsOverviewResponse struct {
	TotalPolls      int64   `json:"total_polls"`
	ActivePolls     int64   `json:"active_polls"`
	CompletedPolls  int64   `json:"completed_polls"`
	TotalVotes      int64   `json:"total_votes"`
	AvgVotesPerPoll float64 `json:"avg_votes_per_poll"`
}
