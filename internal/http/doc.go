// Package httpapp provides the HTTP server for the discuss comment collection.
//
//	@title			Discuss API
//	@version		1.0
//	@description	A flat collection of discussion comments with an absolute like counter.
//	@description
//	@description	Clients read the whole collection, create, edit and delete comments, and
//	@description	persist like toggles by PATCHing the new absolute count:
//	@description	```bash
//	@description	curl -X PATCH /api/comments/7/ -d '{"likes": 4}'
//	@description	```
//	@description	Trailing slashes are optional on every route.
//
//	@host			localhost:8000
//	@BasePath		/
//
//	@tag.name			Comments
//	@tag.description	List, create, edit, like and delete comments.
//
//	@tag.name			Ops
//	@tag.description	Health, stats and Prometheus metrics.
package httpapp
