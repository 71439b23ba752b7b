package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"

	"mnemograph/internal/model"
)

// Neo4j is the external graph-database backend, reached through the same
// Store interface as the embedded backends. Entities, assertions and facts
// are nodes; associations are ASSOC relationships carrying their relation
// type as a property so that free-form types need no dynamic Cypher.
type Neo4j struct {
	driver neo4j.DriverWithContext
}

// OpenNeo4j connects, verifies connectivity and bootstraps indices.
func OpenNeo4j(ctx context.Context, uri, username, password string) (*Neo4j, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, err
	}

	s := &Neo4j{driver: driver}
	if err := s.buildIndices(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Neo4j) buildIndices(ctx context.Context) error {
	queries := []string{
		"CREATE INDEX entity_uuid IF NOT EXISTS FOR (n:Entity) ON (n.uuid)",
		"CREATE INDEX entity_kind IF NOT EXISTS FOR (n:Entity) ON (n.kind)",
		"CREATE INDEX assertion_subject IF NOT EXISTS FOR (n:Assertion) ON (n.subject)",
		"CREATE INDEX fact_key IF NOT EXISTS FOR (n:Fact) ON (n.key)",
		"CREATE INDEX assoc_uuid IF NOT EXISTS FOR ()-[r:ASSOC]-() ON (r.uuid)",
	}
	for _, q := range queries {
		if _, err := s.run(ctx, q, nil); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}

func (s *Neo4j) Close() error {
	return s.driver.Close(context.Background())
}

func (s *Neo4j) run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	return result, nil
}

func (s *Neo4j) UpsertEntity(ctx context.Context, e *model.Entity, prov model.Provenance) error {
	labels, err := json.Marshal(e.Labels)
	if err != nil {
		return fmt.Errorf("encoding labels: %w", err)
	}
	props, err := json.Marshal(e.Properties)
	if err != nil {
		return fmt.Errorf("encoding properties: %w", err)
	}

	_, err = s.run(ctx, `
		MERGE (n:Entity {uuid: $uuid})
		SET n.kind = $kind,
		    n.labels = $labels,
		    n.properties = $properties,
		    n.embedding = $embedding,
		    n.status = $status,
		    n.created_at = $created_at,
		    n.updated_at = $updated_at,
		    n.prov_source = $prov_source,
		    n.prov_confidence = $prov_confidence,
		    n.prov_trace_id = $prov_trace_id,
		    n.prov_at = $prov_at
	`, map[string]any{
		"uuid":            e.UUID,
		"kind":            string(e.Kind),
		"labels":          string(labels),
		"properties":      string(props),
		"embedding":       embeddingToFloat64(e.Embedding),
		"status":          string(e.Status),
		"created_at":      e.CreatedAt.UnixMilli(),
		"updated_at":      e.UpdatedAt.UnixMilli(),
		"prov_source":     prov.Source,
		"prov_confidence": prov.Confidence,
		"prov_trace_id":   prov.TraceID,
		"prov_at":         prov.Timestamp.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("upserting entity %s: %w", e.UUID, err)
	}
	return nil
}

const entityReturn = `RETURN n.uuid AS uuid, n.kind AS kind, n.labels AS labels,
       n.properties AS properties, n.embedding AS embedding, n.status AS status,
       n.created_at AS created_at, n.updated_at AS updated_at`

func (s *Neo4j) GetEntity(ctx context.Context, uuid string) (*model.Entity, error) {
	result, err := s.run(ctx, "MATCH (n:Entity {uuid: $uuid}) "+entityReturn,
		map[string]any{"uuid": uuid})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, nil
	}
	return entityFromRecord(result.Records[0])
}

func (s *Neo4j) Entities(ctx context.Context, f EntityFilter) ([]*model.Entity, error) {
	query := "MATCH (n:Entity)"
	params := map[string]any{}
	clause := " WHERE"
	if f.Kind != "" {
		query += clause + " n.kind = $kind"
		params["kind"] = string(f.Kind)
		clause = " AND"
	}
	if f.Status != "" {
		query += clause + " n.status = $status"
		params["status"] = string(f.Status)
	}
	query += " " + entityReturn + " ORDER BY n.created_at, n.uuid"

	result, err := s.run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	var entities []*model.Entity
	for _, rec := range result.Records {
		e, err := entityFromRecord(rec)
		if err != nil {
			return nil, err
		}
		if f.Marker != "" && !e.Marked(f.Marker) {
			continue
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func (s *Neo4j) UpsertAssociation(ctx context.Context, a *model.Association, prov model.Provenance) error {
	_, err := s.run(ctx, `
		MATCH (from:Entity {uuid: $from})
		MATCH (to:Entity {uuid: $to})
		MERGE (from)-[r:ASSOC {uuid: $uuid}]->(to)
		SET r.relation_type = $relation_type,
		    r.weight = $weight,
		    r.confidence = $confidence,
		    r.status = $status,
		    r.created_at = $created_at,
		    r.prov_source = $prov_source,
		    r.prov_trace_id = $prov_trace_id
	`, map[string]any{
		"uuid":          a.UUID,
		"from":          a.From,
		"to":            a.To,
		"relation_type": a.RelationType,
		"weight":        a.Weight,
		"confidence":    a.Confidence,
		"status":        string(a.Status),
		// Nanosecond precision: (created_at, uuid) is the traversal order and
		// back-to-back edge writes tie at millisecond resolution.
		"created_at":    a.CreatedAt.UnixNano(),
		"prov_source":   prov.Source,
		"prov_trace_id": prov.TraceID,
	})
	if err != nil {
		return fmt.Errorf("upserting association %s: %w", a.UUID, err)
	}
	return nil
}

const assocReturn = `RETURN r.uuid AS uuid, from.uuid AS from, to.uuid AS to,
       r.relation_type AS relation_type, r.weight AS weight,
       r.confidence AS confidence, r.status AS status, r.created_at AS created_at`

func (s *Neo4j) GetAssociation(ctx context.Context, uuid string) (*model.Association, error) {
	result, err := s.run(ctx,
		"MATCH (from)-[r:ASSOC {uuid: $uuid}]->(to) "+assocReturn,
		map[string]any{"uuid": uuid})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, nil
	}
	return assocFromRecord(result.Records[0])
}

func (s *Neo4j) Associations(ctx context.Context) ([]*model.Association, error) {
	result, err := s.run(ctx,
		"MATCH (from)-[r:ASSOC]->(to) "+assocReturn+" ORDER BY r.created_at, r.uuid", nil)
	if err != nil {
		return nil, err
	}
	return assocsFromRecords(result.Records)
}

func (s *Neo4j) AssociationsFrom(ctx context.Context, entityUUID, relationType string) ([]*model.Association, error) {
	result, err := s.run(ctx, `
		MATCH (from:Entity {uuid: $uuid})-[r:ASSOC {relation_type: $relation_type}]->(to)
		`+assocReturn+` ORDER BY r.created_at, r.uuid`,
		map[string]any{"uuid": entityUUID, "relation_type": relationType})
	if err != nil {
		return nil, err
	}
	return assocsFromRecords(result.Records)
}

func (s *Neo4j) AssociationsFor(ctx context.Context, entityUUID string) ([]*model.Association, error) {
	result, err := s.run(ctx, `
		MATCH (from)-[r:ASSOC]->(to)
		WHERE from.uuid = $uuid OR to.uuid = $uuid
		`+assocReturn+` ORDER BY r.created_at, r.uuid`,
		map[string]any{"uuid": entityUUID})
	if err != nil {
		return nil, err
	}
	return assocsFromRecords(result.Records)
}

func (s *Neo4j) AppendAssertion(ctx context.Context, a *model.Assertion, prov model.Provenance) error {
	object, err := json.Marshal(a.Object)
	if err != nil {
		return fmt.Errorf("encoding assertion object: %w", err)
	}
	_, err = s.run(ctx, `
		CREATE (n:Assertion {
			uuid: $uuid, subject: $subject, predicate: $predicate,
			object: $object, truth: $truth, source: $source,
			status: $status, created_at: $created_at,
			prov_source: $prov_source, prov_trace_id: $prov_trace_id
		})
	`, map[string]any{
		"uuid":          a.UUID,
		"subject":       a.Subject,
		"predicate":     a.Predicate,
		"object":        string(object),
		"truth":         a.Truth,
		"source":        a.Source,
		"status":        string(a.Status),
		"created_at":    a.CreatedAt.UnixMilli(),
		"prov_source":   prov.Source,
		"prov_trace_id": prov.TraceID,
	})
	if err != nil {
		return fmt.Errorf("appending assertion %s: %w", a.UUID, err)
	}
	return nil
}

func (s *Neo4j) AssertionsFor(ctx context.Context, subjectUUID string) ([]*model.Assertion, error) {
	result, err := s.run(ctx, `
		MATCH (n:Assertion {subject: $subject})
		RETURN n.uuid AS uuid, n.subject AS subject, n.predicate AS predicate,
		       n.object AS object, n.truth AS truth, n.source AS source,
		       n.status AS status, n.created_at AS created_at
		ORDER BY n.created_at, n.uuid
	`, map[string]any{"subject": subjectUUID})
	if err != nil {
		return nil, err
	}

	var assertions []*model.Assertion
	for _, rec := range result.Records {
		a := &model.Assertion{
			UUID:      recString(rec, "uuid"),
			Subject:   recString(rec, "subject"),
			Predicate: recString(rec, "predicate"),
			Truth:     recFloat(rec, "truth"),
			Source:    recString(rec, "source"),
			Status:    model.AssertionStatus(recString(rec, "status")),
			CreatedAt: recTime(rec, "created_at"),
		}
		if err := json.Unmarshal([]byte(recString(rec, "object")), &a.Object); err != nil {
			return nil, fmt.Errorf("decoding object for assertion %s: %w", a.UUID, err)
		}
		assertions = append(assertions, a)
	}
	return assertions, nil
}

func (s *Neo4j) UpsertFact(ctx context.Context, f *model.Fact, prov model.Provenance) error {
	_, err := s.run(ctx, `
		MERGE (n:Fact {key: $key})
		SET n.uuid = $uuid, n.subject = $subject, n.predicate = $predicate,
		    n.object = $object, n.status = $status, n.confidence = $confidence,
		    n.embedding = $embedding, n.assertion_uuid = $assertion_uuid,
		    n.source = $source, n.created_at = $created_at,
		    n.prov_source = $prov_source, n.prov_trace_id = $prov_trace_id
	`, map[string]any{
		"key":            f.Key,
		"uuid":           f.UUID,
		"subject":        f.Subject,
		"predicate":      f.Predicate,
		"object":         f.Object,
		"status":         string(f.Status),
		"confidence":     f.Confidence,
		"embedding":      embeddingToFloat64(f.Embedding),
		"assertion_uuid": f.AssertionUUID,
		"source":         f.Source,
		"created_at":     f.CreatedAt.UnixMilli(),
		"prov_source":    prov.Source,
		"prov_trace_id":  prov.TraceID,
	})
	if err != nil {
		return fmt.Errorf("upserting fact %s: %w", f.Key, err)
	}
	return nil
}

func (s *Neo4j) Facts(ctx context.Context) ([]*model.Fact, error) {
	result, err := s.run(ctx, `
		MATCH (n:Fact)
		RETURN n.uuid AS uuid, n.key AS key, n.subject AS subject,
		       n.predicate AS predicate, n.object AS object, n.status AS status,
		       n.confidence AS confidence, n.embedding AS embedding,
		       n.assertion_uuid AS assertion_uuid, n.source AS source,
		       n.created_at AS created_at
		ORDER BY n.created_at, n.uuid
	`, nil)
	if err != nil {
		return nil, err
	}

	var facts []*model.Fact
	for _, rec := range result.Records {
		facts = append(facts, &model.Fact{
			UUID:          recString(rec, "uuid"),
			Key:           recString(rec, "key"),
			Subject:       recString(rec, "subject"),
			Predicate:     recString(rec, "predicate"),
			Object:        recString(rec, "object"),
			Status:        model.FactStatus(recString(rec, "status")),
			Confidence:    recFloat(rec, "confidence"),
			Embedding:     recEmbedding(rec, "embedding"),
			AssertionUUID: recString(rec, "assertion_uuid"),
			Source:        recString(rec, "source"),
			CreatedAt:     recTime(rec, "created_at"),
		})
	}
	return facts, nil
}

func entityFromRecord(rec *db.Record) (*model.Entity, error) {
	e := &model.Entity{
		UUID:      recString(rec, "uuid"),
		Kind:      model.Kind(recString(rec, "kind")),
		Status:    model.Status(recString(rec, "status")),
		Embedding: recEmbedding(rec, "embedding"),
		CreatedAt: recTime(rec, "created_at"),
		UpdatedAt: recTime(rec, "updated_at"),
	}
	if raw := recString(rec, "labels"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &e.Labels); err != nil {
			return nil, fmt.Errorf("decoding labels for %s: %w", e.UUID, err)
		}
	}
	if raw := recString(rec, "properties"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &e.Properties); err != nil {
			return nil, fmt.Errorf("decoding properties for %s: %w", e.UUID, err)
		}
	}
	return e, nil
}

func assocFromRecord(rec *db.Record) (*model.Association, error) {
	return &model.Association{
		UUID:         recString(rec, "uuid"),
		From:         recString(rec, "from"),
		To:           recString(rec, "to"),
		RelationType: recString(rec, "relation_type"),
		Weight:       recFloat(rec, "weight"),
		Confidence:   recFloat(rec, "confidence"),
		Status:       model.Status(recString(rec, "status")),
		CreatedAt:    recTimeNano(rec, "created_at"),
	}, nil
}

func assocsFromRecords(records []*db.Record) ([]*model.Association, error) {
	var assocs []*model.Association
	for _, rec := range records {
		a, err := assocFromRecord(rec)
		if err != nil {
			return nil, err
		}
		assocs = append(assocs, a)
	}
	return assocs, nil
}

func recString(rec *db.Record, key string) string {
	v, _ := rec.Get(key)
	s, _ := v.(string)
	return s
}

func recFloat(rec *db.Record, key string) float64 {
	v, _ := rec.Get(key)
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

func recTime(rec *db.Record, key string) time.Time {
	v, _ := rec.Get(key)
	if ms, ok := v.(int64); ok {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}

func recTimeNano(rec *db.Record, key string) time.Time {
	v, _ := rec.Get(key)
	if ns, ok := v.(int64); ok {
		return time.Unix(0, ns).UTC()
	}
	return time.Time{}
}

func recEmbedding(rec *db.Record, key string) []float32 {
	v, _ := rec.Get(key)
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	vec := make([]float32, 0, len(list))
	for _, item := range list {
		if f, ok := item.(float64); ok {
			vec = append(vec, float32(f))
		}
	}
	return vec
}

// embeddingToFloat64 widens for the bolt protocol, which has no float32 list.
func embeddingToFloat64(vec []float32) []float64 {
	if len(vec) == 0 {
		return nil
	}
	out := make([]float64, len(vec))
	for i, f := range vec {
		out[i] = float64(f)
	}
	return out
}
