package tasks

// DefineTasks registers all available tasks
func DefineTasks() {
	// Ledger maintenance tasks
	RegisterHandler(GenerateRecurringDuesTask.TaskID(), GenerateRecurringDuesTask.HandleExecution)
	RegisterHandler(RefreshOverdueStatusesTask.TaskID(), RefreshOverdueStatusesTask.HandleExecution)

	// Notification tasks
	RegisterHandler(SendWarningNoticesTask.TaskID(), SendWarningNoticesTask.HandleExecution)
	RegisterHandler(SendDueRemindersTask.TaskID(), SendDueRemindersTask.HandleExecution)
}
