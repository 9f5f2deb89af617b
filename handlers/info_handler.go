package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"time"

	"github.com/globizora/api-service/store"
	"github.com/globizora/api-service/utils"
)

const (
	ServiceVersion = "1.4.0"
	companyName    = "GLOBIZORA INC"
)

type InfoHandler struct {
	Store       store.UserStore
	Environment string
	StartedAt   time.Time
	Now         func() time.Time
}

type MemoryUsage struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"totalAlloc"`
	Sys        uint64 `json:"sys"`
	HeapInuse  uint64 `json:"heapInuse"`
	NumGC      uint32 `json:"numGC"`
}

func (h *InfoHandler) Root(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to Globizora Inc API Service",
		"company": "Globizora Inc",
		"status":  "running",
		"version": ServiceVersion,
	})
}

func (h *InfoHandler) Status(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"service":     "Globizora API Service",
		"company":     companyName,
		"status":      "OK",
		"version":     ServiceVersion,
		"environment": h.Environment,
		"uptime":      fmt.Sprintf("%ds", int64(h.uptime().Seconds())),
		"timestamp":   h.now(),
	})
}

func (h *InfoHandler) Company(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"name":        companyName,
		"industry":    "AI platforms, Internet infrastructure, SaaS, Media",
		"location":    "Sheridan, Wyoming, USA",
		"email":       "info@globizora.com",
		"established": "2025",
		"services": []string{
			"API platform development",
			"Data infrastructure",
			"SaaS applications",
			"Digital automation",
		},
		"pricing": map[string]string{
			"free":       "$0/month",
			"pro":        "$29/month",
			"enterprise": "$99/month",
		},
	})
}

func (h *InfoHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "connected"
	if err := h.Store.Ping(ctx); err != nil {
		log.Printf("Metrics: store ping failed: %v", err)
		dbStatus = "disconnected"
	}

	users, err := h.Store.Count(ctx)
	if err != nil {
		log.Printf("Metrics: user count failed: %v", err)
		users = 0
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"memoryUsage": MemoryUsage{
			Alloc:      mem.Alloc,
			TotalAlloc: mem.TotalAlloc,
			Sys:        mem.Sys,
			HeapInuse:  mem.HeapInuse,
			NumGC:      mem.NumGC,
		},
		"uptime":    h.uptime().Seconds(),
		"users":     users,
		"dbStatus":  dbStatus,
		"timestamp": h.now(),
	})
}

func (h *InfoHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	utils.RespondError(w, http.StatusNotFound, "Route not found")
}

func (h *InfoHandler) uptime() time.Duration {
	return h.now().Sub(h.StartedAt)
}

func (h *InfoHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}
