// Package topics exposes topic-registration over HTTP: an admin operator
// points the endpoint at a publisher's navigation/category listing and it
// parses out the category links to register as Topics for the Topic
// Scheduler.
package topics

import (
	"net/http"

	"hybridnews/internal/repository"
)

// Register wires the topics endpoints onto mux.
func Register(mux *http.ServeMux, topics repository.TopicRepository, client *http.Client) {
	mux.Handle("POST /topics/init-from-html", InitHandler{Topics: topics, Client: client})
}
