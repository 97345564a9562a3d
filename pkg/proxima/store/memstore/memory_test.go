package memstore

import (
	"context"
	"testing"

	"github.com/cognicore/proxima/pkg/proxima/store"
	"github.com/cognicore/proxima/pkg/proxima/store/storetest"
)

func TestMemstore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestLoadRunReturnsCopy(t *testing.T) {
	ctx := context.Background()
	st := New()
	id, err := st.SaveRun(ctx, storetest.SampleRun())
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	r, _ := st.LoadRun(ctx, id)
	r.Counts["a"]["Female"]["sad"] = 100
	r.Documents[0].Metadata["author_gender"] = "x"

	again, _ := st.LoadRun(ctx, id)
	if again.Counts["a"]["Female"]["sad"] != 3 || again.Documents[0].Metadata["author_gender"] != "female" {
		t.Fatal("stored run was mutated through a loaded copy")
	}
}
