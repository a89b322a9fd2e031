package model

import "time"

// SeedTasks returns the demo tasks a fresh board starts with. Due dates are
// relative to now; the timestamps are all now.
func SeedTasks(now time.Time) []Task {
	due := func(days int) string {
		return now.AddDate(0, 0, days).Format(DateLayout)
	}
	assignee := func(id string) *string { return &id }

	seed := []Task{
		{
			ID:          "1",
			Title:       "Create project plan",
			Description: "Develop a comprehensive project plan for the new feature.",
			DueDate:     due(7),
			Priority:    PriorityHigh,
			Status:      StatusTodo,
			CreatedBy:   "1",
			AssignedTo:  assignee("2"),
		},
		{
			ID:          "2",
			Title:       "Design user interface mockups",
			Description: "Create wireframes and mockups for the new dashboard.",
			DueDate:     due(3),
			Priority:    PriorityMedium,
			Status:      StatusInProgress,
			CreatedBy:   "1",
			AssignedTo:  assignee("3"),
		},
		{
			ID:          "3",
			Title:       "Implement authentication flow",
			Description: "Build the login, registration, and password recovery components.",
			DueDate:     due(5),
			Priority:    PriorityHigh,
			Status:      StatusTodo,
			CreatedBy:   "2",
			AssignedTo:  assignee("4"),
		},
		{
			ID:          "4",
			Title:       "Write documentation",
			Description: "Create user and technical documentation for the application.",
			DueDate:     due(-2), // overdue
			Priority:    PriorityLow,
			Status:      StatusTodo,
			CreatedBy:   "3",
			AssignedTo:  assignee("1"),
		},
		{
			ID:          "5",
			Title:       "Test application functionality",
			Description: "Perform thorough testing of all features and fix bugs.",
			DueDate:     due(10),
			Priority:    PriorityMedium,
			Status:      StatusTodo,
			CreatedBy:   "4",
			AssignedTo:  assignee("2"),
		},
	}
	for i := range seed {
		seed[i].CreatedAt = now
		seed[i].UpdatedAt = now
	}
	return seed
}
