package handlers

import (
	"net/http"

	"vidgen/internal/middleware"
)

// idMessages translates the user-facing error strings for Indonesian callers,
// keyed by the English text. Untranslated strings pass through unchanged.
var idMessages = map[string]string{
	"missing user context":               "sesi pengguna tidak ditemukan",
	"invalid payload":                    "payload tidak valid",
	"image_url is required":              "image_url wajib diisi",
	"id required":                        "id wajib diisi",
	"not enough credits":                 "kredit tidak mencukupi",
	"profile not found":                  "profil tidak ditemukan",
	"generation not found":               "video tidak ditemukan",
	"video generation is not configured": "pembuatan video belum dikonfigurasi",
	"video generation failed to start":   "pembuatan video gagal dimulai",
	"failed to submit generation":        "gagal mengirim permintaan video",
	"failed to list generations":         "gagal memuat daftar video",
	"failed to fetch generation":         "gagal memuat video",
	"failed to load credits":             "gagal memuat kredit",
	"failed to grant credits":            "gagal menambahkan kredit",
	"test credits are disabled":          "kredit percobaan dinonaktifkan",
}

func localize(r *http.Request, message string) string {
	if middleware.LocaleFromContext(r.Context()) != "id" {
		return message
	}
	if translated, ok := idMessages[message]; ok {
		return translated
	}
	return message
}
