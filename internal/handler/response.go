package handler

import (
	"encoding/json"
	"log"
	"net/http"
)

// respondWithError adalah helper untuk mengirim respons error dalam format JSON.
// Contoh: {"error": "Pesan errornya apa"}
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJson(w, code, map[string]string{"error": message})
}

// respondWithJson menangani marshaling, setting header, dan penulisan respons.
func respondWithJson(w http.ResponseWriter, code int, payload interface{}) {
	dat, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal JSON response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(dat)
}
