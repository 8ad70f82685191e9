package qdrant

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"textbook-rag/internal/domain"
)

// Store implements domain.VectorStore against a Qdrant instance over gRPC.
type Store struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	dimension   int
}

// Config contains connection details for a Qdrant vector store.
type Config struct {
	Host       string
	Port       int
	Collection string
}

// NewStore connects to Qdrant and returns a store bound to one collection.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Collection == "" {
		cfg.Collection = "textbook_chunks"
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	return &Store{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  cfg.Collection,
	}, nil
}

// Init creates the collection with cosine distance if it does not exist.
func (s *Store) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.dimension = dimension
	_, err := s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dimension),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("qdrant create collection: %w", err)
	}
	return nil
}

// Upsert stores chunks and their vectors. Point ids are UUIDv5 hashes of
// the chunk id, so re-ingesting unchanged content overwrites in place.
func (s *Store) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	points := make([]*pb.PointStruct, len(chunks))
	for i, c := range chunks {
		payload := map[string]*pb.Value{
			"chunk_id":  {Kind: &pb.Value_StringValue{StringValue: c.ID}},
			"source_id": {Kind: &pb.Value_StringValue{StringValue: c.SourceID}},
			"content":   {Kind: &pb.Value_StringValue{StringValue: c.Content}},
			"index":     {Kind: &pb.Value_IntegerValue{IntegerValue: int64(c.Index)}},
		}
		for k, v := range c.Metadata {
			payload["meta_"+k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
		}
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{PointIdOptions: &pb.PointId_Uuid{
				Uuid: uuid.NewSHA1(uuid.NameSpaceDNS, []byte(c.ID)).String(),
			}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vectors[i]}}},
			Payload: payload,
		}
	}
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

// Search returns the topK nearest neighbors with payloads mapped back to
// matches, in the order Qdrant returns them.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	if topK <= 0 {
		topK = 5
	}
	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}
	results := make([]domain.Match, len(resp.Result))
	for i, pt := range resp.Result {
		m := domain.Match{Score: float64(pt.Score), Metadata: make(map[string]string)}
		for k, v := range pt.Payload {
			switch k {
			case "chunk_id":
				m.ChunkID = v.GetStringValue()
			case "source_id":
				m.SourceID = v.GetStringValue()
			case "content":
				m.Content = v.GetStringValue()
			case "index":
				m.Metadata["index"] = strconv.FormatInt(v.GetIntegerValue(), 10)
			default:
				if len(k) > 5 && k[:5] == "meta_" {
					m.Metadata[k[5:]] = v.GetStringValue()
				}
			}
		}
		results[i] = m
	}
	return results, nil
}

// Clear drops and recreates the collection.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: s.collection})
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("qdrant delete collection: %w", err)
	}
	if s.dimension > 0 {
		return s.Init(ctx, s.dimension)
	}
	return nil
}

// Close releases the underlying gRPC connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

var _ domain.VectorStore = (*Store)(nil)
