package main

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/Simplici0/movequote/internal/customers"
	"github.com/Simplici0/movequote/internal/db"
	"github.com/Simplici0/movequote/internal/status"
)

func (s *server) customers() *customers.Store {
	return customers.NewStore(s.db)
}

func (s *server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := s.customers().ListCustomers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": list, "count": len(list)})
}

func (s *server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var c customers.Customer
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.customers().CreateCustomer(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, created)
}

func (s *server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.customers().GetCustomer(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

func (s *server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var c customers.Customer
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.customers().UpdateCustomer(r.Context(), id, c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, updated)
}

func (s *server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.customers().DeleteCustomer(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true})
}

func (s *server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	customerID, err := queryID(r, "customer_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	st := strings.TrimSpace(r.URL.Query().Get("status"))
	if st != "" {
		if _, err := status.Parse(st); err != nil {
			writeError(w, r, err)
			return
		}
	}
	list, err := s.customers().ListProjects(r.Context(), customerID, st)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": list, "count": len(list)})
}

func (s *server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var p customers.Project
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.customers().CreateProject(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, created)
}

func (s *server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.customers().GetProject(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (s *server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p customers.Project
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	var updated customers.Project
	err = db.WithTx(r.Context(), s.db, func(tx *sql.Tx) error {
		var err error
		updated, err = customers.NewStore(tx).UpdateProject(r.Context(), id, p)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, updated)
}

func (s *server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	err = db.WithTx(r.Context(), s.db, func(tx *sql.Tx) error {
		return customers.NewStore(tx).DeleteProject(r.Context(), id)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true})
}

func (s *server) handleProjectStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	next, notes, err := decodeStatus(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var entry status.Entry
	err = db.WithTx(r.Context(), s.db, func(tx *sql.Tx) error {
		var err error
		entry, err = status.Change(r.Context(), tx, id, next, notes, currentUserID(r))
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, entry)
}

func (s *server) handleStatusHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.customers().GetProject(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := status.History(r.Context(), s.db, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": entries, "count": len(entries)})
}
