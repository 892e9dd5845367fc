package web

import (
	"net/http"
	"net/url"
	"slices"

	"github.com/hpungsan/rolodex/internal/category"
	"github.com/hpungsan/rolodex/internal/errors"
	"github.com/hpungsan/rolodex/internal/ops"
	"github.com/hpungsan/rolodex/internal/store"
)

// sessionWarning is shown after a save or delete that could not be persisted.
const sessionWarning = "Saved for this session only: the contact list could not be written to storage."

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	store    *store.Store
	tree     *category.Tree
	renderer *Renderer
}

// HandleList handles GET /contacts: the entry form and the contact table.
// The form is re-populated from the query string so that submitting it with
// GET refreshes the level 2 and level 3 options.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	form := h.newForm(q.Get("id"), category.Selection{
		Level1: q.Get("level1"),
		Level2: q.Get("level2"),
		Level3: q.Get("level3"),
	}, q.Get("comment"))

	var warning string
	if q.Get("warning") == "session" {
		warning = sessionWarning
	}
	h.renderContacts(w, r, form, warning)
}

// HandleEdit handles GET /contacts/{id}/edit: the form filled with a contact.
func (h *Handlers) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("contact ID is required"))
		return
	}

	rec, err := h.store.Get(id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderContacts(w, r, h.newForm(rec.ID, rec.Selection(), rec.Comment), "")
}

// HandleSave handles POST /contacts: create or replace a contact.
func (h *Handlers) HandleSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	sel := cascade(h.tree, category.Selection{
		Level1: r.FormValue("level1"),
		Level2: r.FormValue("level2"),
		Level3: r.FormValue("level3"),
	})
	result, err := ops.Save(r.Context(), h.store, h.tree, store.SaveInput{
		Level1:  sel.Level1,
		Level2:  sel.Level2,
		Level3:  sel.Level3,
		Comment: r.FormValue("comment"),
		ID:      r.FormValue("id"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		renderJSON(w, status, result)
		return
	}
	h.redirectHome(w, r, result.Persisted)
}

// HandleDelete handles DELETE /contacts/{id} and POST /contacts/{id}/delete.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("contact ID is required"))
		return
	}

	result, err := ops.Delete(r.Context(), h.store, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	h.redirectHome(w, r, result.Persisted)
}

// HandleAPIList handles GET /api/contacts as JSON.
func (h *Handlers) HandleAPIList(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, ops.List(h.store, h.tree))
}

// HandleAPICategories handles GET /api/categories as JSON.
func (h *Handlers) HandleAPICategories(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]any{"categories": h.tree.Roots()})
}

func (h *Handlers) renderContacts(w http.ResponseWriter, r *http.Request, form FormData, warning string) {
	title := "Contacts"
	if form.Editing() {
		title = "Edit contact"
	}
	h.renderer.renderPage(w, r, "contacts", ContactsPageData{
		PageData: h.renderer.page(title),
		Items:    ops.List(h.store, h.tree).Items,
		Form:     form,
		Warning:  warning,
	})
}

// redirectHome sends the browser back to the contact list after a mutation.
func (h *Handlers) redirectHome(w http.ResponseWriter, r *http.Request, persisted bool) {
	target := "/contacts"
	if !persisted {
		target += "?" + url.Values{"warning": {"session"}}.Encode()
	}

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// newForm builds the form for a selection, clearing levels that are not
// among the options offered by the level above.
func (h *Handlers) newForm(id string, sel category.Selection, comment string) FormData {
	sel = cascade(h.tree, sel)
	return FormData{
		ID:            id,
		Level1:        sel.Level1,
		Level2:        sel.Level2,
		Level3:        sel.Level3,
		Comment:       comment,
		Level1Options: h.tree.Roots(),
		Level2Options: h.tree.Level2(sel.Level1),
		Level3Options: h.tree.Level3(sel.Level1, sel.Level2),
	}
}

// cascade clears every level whose id is not a child of the level above it,
// and everything below a cleared level.
func cascade(tree *category.Tree, sel category.Selection) category.Selection {
	if !hasOption(tree.Roots(), sel.Level1) {
		return category.Selection{}
	}
	if !hasOption(tree.Level2(sel.Level1), sel.Level2) {
		return category.Selection{Level1: sel.Level1}
	}
	if !hasOption(tree.Level3(sel.Level1, sel.Level2), sel.Level3) {
		sel.Level3 = ""
	}
	return sel
}

func hasOption(options []category.Node, id string) bool {
	return id != "" && slices.ContainsFunc(options, func(n category.Node) bool { return n.ID == id })
}
