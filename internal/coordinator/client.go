package coordinator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/haivivi/mtreecluster/internal/vector"
	"github.com/haivivi/mtreecluster/internal/wire"
)

func postJSON(ctx context.Context, client *http.Client, url string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("worker returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func toVectorJSON(v vector.Vector) wire.VectorJSON {
	return wire.VectorJSON{ID: v.ID, Vector: v.Data, Metadata: v.Metadata}
}

func fromResultJSON(in []wire.SearchResultJSON) []vector.SearchResult {
	out := make([]vector.SearchResult, len(in))
	for i, r := range in {
		out[i] = vector.SearchResult{
			Vector:   vector.Vector{ID: r.VectorID, Data: r.VectorDataSnippet, Metadata: r.Metadata},
			Distance: r.Distance,
		}
	}
	return out
}

func postInsert(ctx context.Context, client *http.Client, endpoint string, v vector.Vector) error {
	var resp wire.InsertResponse
	if err := postJSON(ctx, client, endpoint+"/insert", toVectorJSON(v), &resp); err != nil {
		return err
	}
	if resp.Status != "success" {
		return fmt.Errorf("worker: %s", resp.Message)
	}
	return nil
}

func postKNN(ctx context.Context, client *http.Client, endpoint string, q vector.Vector, k int) ([]vector.SearchResult, error) {
	var resp wire.SearchResponse
	req := wire.KNNRequest{QueryVector: toVectorJSON(q), K: k}
	if err := postJSON(ctx, client, endpoint+"/search/knn", req, &resp); err != nil {
		return nil, err
	}
	return fromResultJSON(resp.Results), nil
}

func postRange(ctx context.Context, client *http.Client, endpoint string, q vector.Vector, r float64) ([]vector.SearchResult, error) {
	var resp wire.SearchResponse
	req := wire.RangeRequest{QueryVector: toVectorJSON(q), Radius: r}
	if err := postJSON(ctx, client, endpoint+"/search/range", req, &resp); err != nil {
		return nil, err
	}
	return fromResultJSON(resp.Results), nil
}

func getStatus(ctx context.Context, client *http.Client, endpoint string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/status", nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("worker returned status %d", resp.StatusCode)
	}
	var st wire.WorkerStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return 0, err
	}
	return st.MTreeSize, nil
}
