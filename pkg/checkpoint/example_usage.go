package checkpoint

import (
	"fmt"
	"log"
)

func ExampleManager() {
	mgr, err := NewManager(nil)
	if err != nil {
		log.Fatal(err)
	}

	target := "timeline:johndoe"

	// Resume from a previous run when a state exists.
	state, err := mgr.Load(target)
	if err != nil {
		log.Fatal(err)
	}
	if state != nil {
		fmt.Printf("Resuming from page %d, %d items collected\n", state.Page, state.Items)
	} else {
		state = NewState(target, "posts")
		fmt.Println("Starting fresh extraction")
	}

	// Record progress after each page.
	state.Cursor = "next_cursor_xyz"
	state.Page++
	state.SeenKeys = append(state.SeenKeys, "post:ABC123")
	state.Items++
	if err := mgr.Save(state); err != nil {
		log.Fatal(err)
	}

	// A completed run has nothing left to resume.
	if err := mgr.Delete(target); err != nil {
		log.Printf("Failed to delete checkpoint: %v", err)
	}
}
