// A local stand-in for the hosted JuaLearn API, for development:
//
//	go run ./apps/fakeapi &
//	DEV_APIBASEURL=http://localhost:9080/ go run ./apps/web
package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/jualearn/jualearn-web/services/fakeapi"
)

func main() {
	addr := os.Getenv("FAKEAPI_ADDR")
	if addr == "" {
		addr = ":9080"
	}

	api := fakeapi.NewServer(fakeapi.Options{
		AccessTTL:     2 * time.Minute, // short, so the refresh flow actually runs
		RotateRefresh: true,
	})
	if err := api.SeedDefaults(); err != nil {
		log.Fatalf("seeding: %v", err)
	}

	log.Printf("fake JuaLearn API on %s (amina/studentpass, kamau/teacherpass, wanjiru/adminpass)", addr)
	log.Fatal(http.ListenAndServe(addr, api))
}
