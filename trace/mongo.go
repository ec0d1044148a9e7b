package trace

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSource MongoDB中的轨迹集合，每个文档一条轨迹
//
//	{id: 0, points: [{t: 0, lat: 45.0, lon: 9.0}, ...]}
//
// 按_id顺序读取
type MongoSource struct {
	Coll *mongo.Collection
}

func (s MongoSource) Key() string {
	return s.Coll.Database().Name() + "." + s.Coll.Name()
}

func (s MongoSource) Records(ctx context.Context) ([]Record, error) {
	cur, err := s.Coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.Key(), err)
	}
	defer cur.Close(ctx)
	records := make([]Record, 0)
	for cur.Next(ctx) {
		var r Record
		if err := cur.Decode(&r); err != nil {
			return nil, fmt.Errorf("failed to decode trace in %s: %w", s.Key(), err)
		}
		records = append(records, r)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
