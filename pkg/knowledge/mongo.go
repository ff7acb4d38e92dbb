package knowledge

import (
	"context"
	"math"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/stackadvisor/pkg/errors"
	"github.com/matzehuels/stackadvisor/pkg/python"
	"github.com/matzehuels/stackadvisor/pkg/version"
)

// Collection names.
const (
	CollectionPackages     = "python_packages"
	CollectionDependencies = "python_dependencies"
	CollectionBuildErrors  = "build_errors"
	CollectionCVE          = "cve"
	CollectionPerformance  = "performance"
	CollectionIndexes      = "python_indexes"
)

// DefaultMongoDatabase is used when the connection URI names no database.
const DefaultMongoDatabase = "stackadvisor"

// Mongo is a [KnowledgeBase] stored in MongoDB.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	owned  bool
}

var _ KnowledgeBase = (*Mongo)(nil)

type releaseDoc struct {
	Name    string `bson:"name"`
	Version string `bson:"version"`
	Index   string `bson:"index"`
}

type dependenciesDoc struct {
	Name     string   `bson:"name"`
	Version  string   `bson:"version"`
	Index    string   `bson:"index"`
	Requires []string `bson:"requires"`
}

type buildErrorDoc struct {
	Name        string `bson:"name"`
	Version     string `bson:"version"`
	Index       string `bson:"index"`
	EnvSelector `bson:",inline"`
}

// NewMongo connects to uri and uses database (DefaultMongoDatabase when
// empty). The connection is verified with a ping.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeKnowledgeBase, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeKnowledgeBase, err, "ping mongodb")
	}
	m := NewMongoFromClient(client, database)
	m.owned = true
	return m, nil
}

// NewMongoFromClient wraps an existing client. Close does not disconnect it.
func NewMongoFromClient(client *mongo.Client, database string) *Mongo {
	if database == "" {
		database = DefaultMongoDatabase
	}
	return &Mongo{client: client, db: client.Database(database)}
}

// EnsureIndexes creates the lookup indexes used by the queries.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	tuple := mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}, {Key: "version", Value: 1}, {Key: "index", Value: 1}}}
	for _, coll := range []string{CollectionPackages, CollectionDependencies, CollectionBuildErrors, CollectionPerformance} {
		if _, err := m.db.Collection(coll).Indexes().CreateOne(ctx, tuple); err != nil {
			return errors.Wrap(errors.ErrCodeKnowledgeBase, err, "create index on %s", coll)
		}
	}
	if _, err := m.db.Collection(CollectionCVE).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "package", Value: 1}}}); err != nil {
		return errors.Wrap(errors.ErrCodeKnowledgeBase, err, "create index on %s", CollectionCVE)
	}
	_, err := m.db.Collection(CollectionIndexes).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeKnowledgeBase, err, "create index on %s", CollectionIndexes)
	}
	return nil
}

// Import upserts the content of a snapshot.
func (m *Mongo) Import(ctx context.Context, s *Snapshot) error {
	upsert := options.Replace().SetUpsert(true)

	for _, idx := range s.Indexes {
		if _, err := m.db.Collection(CollectionIndexes).ReplaceOne(ctx, bson.M{"url": idx.URL}, idx, upsert); err != nil {
			return errors.Wrap(errors.ErrCodeKnowledgeBase, err, "import index %s", idx.URL)
		}
	}

	for _, p := range s.Packages {
		t := p.Tuple()
		t.Name = python.NormalizeName(t.Name)
		filter := tupleFilter(t)
		rel := releaseDoc{Name: t.Name, Version: t.Version, Index: t.Index}
		if _, err := m.db.Collection(CollectionPackages).ReplaceOne(ctx, filter, rel, upsert); err != nil {
			return errors.Wrap(errors.ErrCodeKnowledgeBase, err, "import %s", t)
		}
		deps := dependenciesDoc{Name: t.Name, Version: t.Version, Index: t.Index, Requires: p.Requires}
		if _, err := m.db.Collection(CollectionDependencies).ReplaceOne(ctx, filter, deps, upsert); err != nil {
			return errors.Wrap(errors.ErrCodeKnowledgeBase, err, "import requirements of %s", t)
		}
		if _, err := m.db.Collection(CollectionBuildErrors).DeleteMany(ctx, filter); err != nil {
			return errors.Wrap(errors.ErrCodeKnowledgeBase, err, "import build errors of %s", t)
		}
		for _, sel := range p.BuildErrors {
			doc := buildErrorDoc{Name: t.Name, Version: t.Version, Index: t.Index, EnvSelector: sel}
			if _, err := m.db.Collection(CollectionBuildErrors).InsertOne(ctx, doc); err != nil {
				return errors.Wrap(errors.ErrCodeKnowledgeBase, err, "import build errors of %s", t)
			}
		}
	}

	for _, c := range s.CVEs {
		c.Package = python.NormalizeName(c.Package)
		filter := bson.M{"package": c.Package, "id": c.ID}
		if _, err := m.db.Collection(CollectionCVE).ReplaceOne(ctx, filter, c, upsert); err != nil {
			return errors.Wrap(errors.ErrCodeKnowledgeBase, err, "import %s", c.ID)
		}
	}

	for _, p := range s.Performance {
		p.Name = python.NormalizeName(p.Name)
		p.Index = indexOrDefault(p.Index)
		if _, err := m.db.Collection(CollectionPerformance).InsertOne(ctx, p); err != nil {
			return errors.Wrap(errors.ErrCodeKnowledgeBase, err, "import performance of %s", p.Tuple())
		}
	}
	return nil
}

func tupleFilter(t python.PackageTuple) bson.M {
	return bson.M{"name": python.NormalizeName(t.Name), "version": t.Version, "index": indexOrDefault(t.Index)}
}

// GetPackageVersions implements [KnowledgeBase].
func (m *Mongo) GetPackageVersions(ctx context.Context, name string, _ python.RuntimeEnvironment) ([]python.PackageTuple, error) {
	name = python.NormalizeName(name)
	cur, err := m.db.Collection(CollectionPackages).Find(ctx, bson.M{"name": name})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeKnowledgeBase, err, "query versions of %s", name)
	}
	var docs []releaseDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeKnowledgeBase, err, "decode versions of %s", name)
	}

	tuples := make([]python.PackageTuple, 0, len(docs))
	for _, d := range docs {
		tuples = append(tuples, python.NewPackageTuple(d.Name, d.Version, d.Index))
	}
	sort.SliceStable(tuples, func(i, j int) bool {
		if c := version.Compare(tuples[i].Version, tuples[j].Version); c != 0 {
			return c > 0
		}
		return tuples[i].Index < tuples[j].Index
	})
	return tuples, nil
}

// GetDependencies implements [KnowledgeBase].
func (m *Mongo) GetDependencies(ctx context.Context, t python.PackageTuple, _ python.RuntimeEnvironment) ([]python.Requirement, error) {
	var doc dependenciesDoc
	err := m.db.Collection(CollectionDependencies).FindOne(ctx, tupleFilter(t)).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeKnowledgeBase, err, "query requirements of %s", t)
	}

	reqs := make([]python.Requirement, 0, len(doc.Requires))
	for _, s := range doc.Requires {
		req, err := python.ParseRequirement(s)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeKnowledgeBase, err, "requirement of %s", t)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// HasBuildError implements [KnowledgeBase].
func (m *Mongo) HasBuildError(ctx context.Context, t python.PackageTuple, env python.RuntimeEnvironment) (bool, error) {
	cur, err := m.db.Collection(CollectionBuildErrors).Find(ctx, tupleFilter(t))
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeKnowledgeBase, err, "query build errors of %s", t)
	}
	var docs []buildErrorDoc
	if err := cur.All(ctx, &docs); err != nil {
		return false, errors.Wrap(errors.ErrCodeKnowledgeBase, err, "decode build errors of %s", t)
	}
	for _, d := range docs {
		if d.Matches(env) {
			return true, nil
		}
	}
	return false, nil
}

// GetCVERecords implements [KnowledgeBase].
func (m *Mongo) GetCVERecords(ctx context.Context, name, ver string) ([]CVERecord, error) {
	name = python.NormalizeName(name)
	cur, err := m.db.Collection(CollectionCVE).Find(ctx, bson.M{"package": name})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeKnowledgeBase, err, "query cves of %s", name)
	}
	var docs []CVERecord
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeKnowledgeBase, err, "decode cves of %s", name)
	}

	var out []CVERecord
	for _, c := range docs {
		spec, err := version.ParseSpecifier(c.VersionRange)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeKnowledgeBase, err, "version range of %s", c.ID)
		}
		if spec.Contains(ver, true) {
			out = append(out, c)
		}
	}
	return out, nil
}

// ComputeAveragePerformance implements [KnowledgeBase].
func (m *Mongo) ComputeAveragePerformance(ctx context.Context, tuples []python.PackageTuple, env python.RuntimeEnvironment) (float64, error) {
	if len(tuples) == 0 {
		return math.NaN(), nil
	}
	or := make(bson.A, 0, len(tuples))
	for _, t := range tuples {
		or = append(or, tupleFilter(t))
	}
	cur, err := m.db.Collection(CollectionPerformance).Find(ctx, bson.M{"$or": or})
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeKnowledgeBase, err, "query performance")
	}
	var docs []PerformanceRecord
	if err := cur.All(ctx, &docs); err != nil {
		return 0, errors.Wrap(errors.ErrCodeKnowledgeBase, err, "decode performance")
	}

	var sum float64
	var n int
	for _, d := range docs {
		if d.Matches(env) {
			sum += d.Score
			n++
		}
	}
	if n == 0 {
		return math.NaN(), nil
	}
	return sum / float64(n), nil
}

// IsIndexEnabled implements [KnowledgeBase].
func (m *Mongo) IsIndexEnabled(ctx context.Context, url string) (bool, error) {
	var doc IndexRecord
	err := m.db.Collection(CollectionIndexes).FindOne(ctx, bson.M{"url": url}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return true, nil
	}
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeKnowledgeBase, err, "query index %s", url)
	}
	return doc.Enabled, nil
}

// Drop removes every collection. Intended for tests.
func (m *Mongo) Drop(ctx context.Context) error {
	return m.db.Drop(ctx)
}

// Close disconnects the client when it was created by [NewMongo].
func (m *Mongo) Close() error {
	if !m.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
