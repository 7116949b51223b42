package interfaces

import "github.com/ternarybob/venator/internal/models"

// Notifier delivers run summaries to an external channel. Notification
// failures are logged and never affect the run outcome.
type Notifier interface {
	RunCompleted(result *models.RunResult) error
}
