package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/crowdlab/crowdlab/internal/domain"
	"github.com/crowdlab/crowdlab/internal/store"
)

// Resource is the generic CRUD dispatcher. One Resource serves one
// entity type through its EntityHandler; the dispatcher owns request
// parsing, pagination, the authorization ordering and response
// serialization.
type Resource struct {
	handler EntityHandler
	logger  *slog.Logger
}

// NewResource creates a dispatcher for the given entity handler.
func NewResource(handler EntityHandler, logger *slog.Logger) *Resource {
	return &Resource{
		handler: handler,
		logger:  logger.With(slog.String("resource", handler.Name())),
	}
}

// Mount registers the resource routes under /<name> on the router.
// Extra registrars can attach entity-specific subroutes under the same
// prefix.
func (rs *Resource) Mount(r chi.Router, extras ...func(chi.Router)) {
	r.Route("/"+rs.handler.Name(), func(r chi.Router) {
		r.Get("/", rs.list)
		r.Post("/", rs.create)
		r.Options("/", rs.options)
		r.Get("/{id}", rs.get)
		r.Put("/{id}", rs.update)
		r.Delete("/{id}", rs.delete)
		r.Options("/{id}", rs.options)
		for _, extra := range extras {
			extra(r)
		}
	})
}

// fail renders err as the failure envelope for the given action.
func (rs *Resource) fail(w http.ResponseWriter, r *http.Request, action Action, err error) {
	RespondError(w, r, string(action), rs.handler.Name(), err)
}

// entityID parses the {id} route parameter. A non-numeric id does not
// match any entity, so it reports not found rather than a bad request.
func entityID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, errNotFound("entity not found")
	}
	return id, nil
}

// controlParams are query keys handled by the dispatcher itself and
// therefore never treated as entity filters.
var controlParams = map[string]bool{
	"limit":    true,
	"offset":   true,
	"last_id":  true,
	"api_key":  true,
	"callback": true,
}

// listQuery builds the store query from the request, validating every
// filter key against the entity's attribute set.
func (rs *Resource) listQuery(r *http.Request) (store.ListQuery, error) {
	q := store.ListQuery{Filters: make(map[string]any)}
	fields := rs.handler.Fields()

	values := r.URL.Query()
	for key := range values {
		if controlParams[key] {
			continue
		}
		if !fields[key] {
			return q, errAttributeError(fmt.Sprintf("unknown attribute: %s", key))
		}
		q.Filters[key] = values.Get(key)
	}

	if raw := values.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			q.Limit = n
		}
	}
	if raw := values.Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			q.Offset = n
		}
	}
	if raw := values.Get("last_id"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, errValueError(fmt.Sprintf("invalid last_id: %s", raw))
		}
		q.LastID = n
	}

	return q.Normalize(), nil
}

// checkArgs rejects unknown query parameters on write requests.
func (rs *Resource) checkArgs(r *http.Request) error {
	fields := rs.handler.Fields()
	for key := range r.URL.Query() {
		if controlParams[key] {
			continue
		}
		if !fields[key] {
			return errAttributeError(fmt.Sprintf("unknown attribute: %s", key))
		}
	}
	return nil
}

// render builds the read representation of an entity: the handler's
// public view plus the navigational link fields.
func (rs *Resource) render(e domain.Entity) (map[string]any, error) {
	data, err := json.Marshal(rs.handler.Public(e))
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}

	link, links := rs.handler.Links(e)
	if link != "" {
		obj["link"] = link
	}
	if len(links) > 0 {
		obj["links"] = links
	}
	return obj, nil
}

func (rs *Resource) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := ActorFromContext(ctx)

	if err := rs.handler.Authorize(ctx, actor, ActionGet, nil); err != nil {
		rs.fail(w, r, ActionGet, err)
		return
	}

	q, err := rs.listQuery(r)
	if err != nil {
		rs.fail(w, r, ActionGet, err)
		return
	}

	items, err := rs.handler.Filter(ctx, q)
	if err != nil {
		rs.fail(w, r, ActionGet, err)
		return
	}

	// Items the actor may not read are dropped rather than failing the
	// whole collection.
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if err := rs.handler.Authorize(ctx, actor, ActionGet, item); err != nil {
			continue
		}
		obj, err := rs.render(item)
		if err != nil {
			rs.fail(w, r, ActionGet, err)
			return
		}
		out = append(out, obj)
	}

	respondJSON(w, r, http.StatusOK, out)
}

func (rs *Resource) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := ActorFromContext(ctx)

	if err := rs.handler.Authorize(ctx, actor, ActionGet, nil); err != nil {
		rs.fail(w, r, ActionGet, err)
		return
	}

	id, err := entityID(r)
	if err != nil {
		rs.fail(w, r, ActionGet, err)
		return
	}

	item, err := rs.handler.Get(ctx, id)
	if err != nil {
		rs.fail(w, r, ActionGet, err)
		return
	}

	if err := rs.handler.Authorize(ctx, actor, ActionGet, item); err != nil {
		rs.fail(w, r, ActionGet, err)
		return
	}

	obj, err := rs.render(item)
	if err != nil {
		rs.fail(w, r, ActionGet, err)
		return
	}
	respondJSON(w, r, http.StatusOK, obj)
}

func (rs *Resource) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := ActorFromContext(ctx)

	if err := rs.checkArgs(r); err != nil {
		rs.fail(w, r, ActionPost, err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		rs.fail(w, r, ActionPost, errValueError(err.Error()))
		return
	}

	payload, err := parsePayload(body)
	if err != nil {
		rs.fail(w, r, ActionPost, err)
		return
	}
	if err := checkReserved(payload, rs.handler.Reserved()); err != nil {
		rs.fail(w, r, ActionPost, err)
		return
	}
	stripLinks(payload)

	entity, err := rs.handler.Decode(remarshal(payload))
	if err != nil {
		rs.fail(w, r, ActionPost, err)
		return
	}

	if err := rs.handler.BeforeSave(ctx, r, actor, entity); err != nil {
		rs.fail(w, r, ActionPost, err)
		return
	}

	if err := rs.handler.Authorize(ctx, actor, ActionPost, entity); err != nil {
		rs.fail(w, r, ActionPost, err)
		return
	}

	if err := rs.handler.Save(ctx, entity); err != nil {
		rs.fail(w, r, ActionPost, err)
		return
	}

	rs.handler.AfterSave(ctx, entity)

	// Writes return the stored entity verbatim, without the read view or
	// links.
	respondJSON(w, r, http.StatusOK, entity)
}

func (rs *Resource) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := ActorFromContext(ctx)

	if err := rs.checkArgs(r); err != nil {
		rs.fail(w, r, ActionPut, err)
		return
	}

	id, err := entityID(r)
	if err != nil {
		rs.fail(w, r, ActionPut, err)
		return
	}

	existing, err := rs.handler.Get(ctx, id)
	if err != nil {
		rs.fail(w, r, ActionPut, err)
		return
	}

	if err := rs.handler.Authorize(ctx, actor, ActionPut, existing); err != nil {
		rs.fail(w, r, ActionPut, err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		rs.fail(w, r, ActionPut, errValueError(err.Error()))
		return
	}

	payload, err := parsePayload(body)
	if err != nil {
		rs.fail(w, r, ActionPut, err)
		return
	}
	if err := checkReserved(payload, rs.handler.Reserved()); err != nil {
		rs.fail(w, r, ActionPut, err)
		return
	}
	stripLinks(payload)

	merged, err := rs.handler.Merge(existing, remarshal(payload))
	if err != nil {
		rs.fail(w, r, ActionPut, err)
		return
	}

	if err := rs.handler.Update(ctx, merged); err != nil {
		rs.fail(w, r, ActionPut, err)
		return
	}

	respondJSON(w, r, http.StatusOK, merged)
}

func (rs *Resource) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := ActorFromContext(ctx)

	if err := rs.checkArgs(r); err != nil {
		rs.fail(w, r, ActionDelete, err)
		return
	}

	id, err := entityID(r)
	if err != nil {
		rs.fail(w, r, ActionDelete, err)
		return
	}

	item, err := rs.handler.Get(ctx, id)
	if err != nil {
		rs.fail(w, r, ActionDelete, err)
		return
	}

	if err := rs.handler.Authorize(ctx, actor, ActionDelete, item); err != nil {
		rs.fail(w, r, ActionDelete, err)
		return
	}

	if err := rs.handler.Delete(ctx, item); err != nil {
		rs.fail(w, r, ActionDelete, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// options exists so bare OPTIONS requests outside a CORS preflight still
// succeed.
func (rs *Resource) options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
