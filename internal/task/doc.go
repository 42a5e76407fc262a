// Package task implements the asynchronous task lifecycle: the queue
// decoupling submission from processing, the background worker draining
// it through the agent pipeline, and the persisted status record each
// task moves through (queued → processing → completed/failed).
package task
