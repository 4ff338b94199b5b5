package vector

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// QdrantStore implements Store against a Qdrant instance over gRPC.
type QdrantStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
}

// NewQdrantStore connects to the Qdrant gRPC endpoint at addr (host:port).
func NewQdrantStore(addr string) (*QdrantStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	return &QdrantStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
	}, nil
}

func (s *QdrantStore) CreateCollection(ctx context.Context, spec CollectionSpec) error {
	exists, err := s.collectionExists(ctx, spec.Name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("collection %q: %w", spec.Name, ErrAlreadyExists)
	}
	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: spec.Name,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     spec.Dimension,
					Distance: toDistance(spec.Distance),
				},
			},
		},
	})
	if err != nil {
		return mapGRPCError(err)
	}
	return nil
}

func (s *QdrantStore) ListCollections(ctx context.Context) ([]CollectionInfo, error) {
	resp, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return nil, mapGRPCError(err)
	}
	infos := make([]CollectionInfo, 0, len(resp.GetCollections()))
	for _, c := range resp.GetCollections() {
		info, err := s.DescribeCollection(ctx, c.GetName())
		if err != nil {
			// Collection disappeared between List and Get.
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *QdrantStore) DescribeCollection(ctx context.Context, name string) (CollectionInfo, error) {
	resp, err := s.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: name})
	if err != nil {
		return CollectionInfo{}, mapGRPCError(err)
	}
	result := resp.GetResult()
	info := CollectionInfo{
		Name:        name,
		PointsCount: result.GetPointsCount(),
		Status:      result.GetStatus().String(),
	}
	if params := result.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
		info.Dimension = params.GetSize()
		info.Distance = fromDistance(params.GetDistance())
	}
	return info, nil
}

func (s *QdrantStore) DeleteCollection(ctx context.Context, name string) error {
	resp, err := s.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: name})
	if err != nil {
		return mapGRPCError(err)
	}
	// Qdrant reports false when there was nothing to delete.
	if !resp.GetResult() {
		return fmt.Errorf("collection %q: %w", name, ErrNotFound)
	}
	return nil
}

func (s *QdrantStore) EnsureCollection(ctx context.Context, spec CollectionSpec) error {
	exists, err := s.collectionExists(ctx, spec.Name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.CreateCollection(ctx, spec)
}

func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	pts := make([]*pb.PointStruct, len(points))
	for i, p := range points {
		pts[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: p.ID}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: p.Vector}}},
			Payload: toPayload(p.Payload),
		}
	}
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: collection,
		Wait:           boolPtr(true),
		Points:         pts,
	})
	if err != nil {
		return mapGRPCError(err)
	}
	return nil
}

func (s *QdrantStore) DeletePoint(ctx context.Context, collection, id string) error {
	pointID := &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id}}

	// Qdrant's delete is unconditionally idempotent, so check existence first
	// to report NotFound for ids that are already gone.
	got, err := s.points.Get(ctx, &pb.GetPoints{
		CollectionName: collection,
		Ids:            []*pb.PointId{pointID},
	})
	if err != nil {
		return mapGRPCError(err)
	}
	if len(got.GetResult()) == 0 {
		return fmt.Errorf("point %q: %w", id, ErrNotFound)
	}

	_, err = s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: collection,
		Wait:           boolPtr(true),
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{Ids: []*pb.PointId{pointID}},
			},
		},
	})
	if err != nil {
		return mapGRPCError(err)
	}
	return nil
}

func (s *QdrantStore) Scroll(ctx context.Context, collection, offset string, limit int) (Page, error) {
	req := &pb.ScrollPoints{
		CollectionName: collection,
		Limit:          uint32Ptr(uint32(limit)),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}
	if offset != "" {
		req.Offset = &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: offset}}
	}
	resp, err := s.points.Scroll(ctx, req)
	if err != nil {
		return Page{}, mapGRPCError(err)
	}
	page := Page{Points: make([]Point, len(resp.GetResult()))}
	for i, pt := range resp.GetResult() {
		page.Points[i] = Point{
			ID:      pt.GetId().GetUuid(),
			Payload: fromPayload(pt.GetPayload()),
		}
	}
	if next := resp.GetNextPageOffset(); next != nil {
		page.NextOffset = next.GetUuid()
	}
	return page, nil
}

func (s *QdrantStore) Search(ctx context.Context, collection string, vec []float32, limit int) ([]ScoredPoint, error) {
	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: collection,
		Vector:         vec,
		Limit:          uint64(limit),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, mapGRPCError(err)
	}
	results := make([]ScoredPoint, len(resp.GetResult()))
	for i, pt := range resp.GetResult() {
		results[i] = ScoredPoint{
			ID:      pt.GetId().GetUuid(),
			Score:   pt.GetScore(),
			Payload: fromPayload(pt.GetPayload()),
		}
	}
	return results, nil
}

func (s *QdrantStore) Close() error {
	return s.conn.Close()
}

func (s *QdrantStore) collectionExists(ctx context.Context, name string) (bool, error) {
	resp, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return false, mapGRPCError(err)
	}
	for _, c := range resp.GetCollections() {
		if c.GetName() == name {
			return true, nil
		}
	}
	return false, nil
}

// mapGRPCError converts gRPC status codes into the store's sentinel errors.
func mapGRPCError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, st.Message())
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", ErrAlreadyExists, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	default:
		return err
	}
}

func toDistance(m Metric) pb.Distance {
	switch m {
	case MetricEuclidean:
		return pb.Distance_Euclid
	case MetricDot:
		return pb.Distance_Dot
	default:
		return pb.Distance_Cosine
	}
}

func fromDistance(d pb.Distance) Metric {
	switch d {
	case pb.Distance_Euclid:
		return MetricEuclidean
	case pb.Distance_Dot:
		return MetricDot
	default:
		return MetricCosine
	}
}

func boolPtr(b bool) *bool       { return &b }
func uint32Ptr(v uint32) *uint32 { return &v }

var _ Store = (*QdrantStore)(nil)
