package search

import (
	"context"
	"fmt"

	"github.com/mathursrus/LinkedIn-Network/internal/engine"
	"github.com/mathursrus/LinkedIn-Network/internal/extract"
	"github.com/mathursrus/LinkedIn-Network/pkg/models"
)

// CompanyConnections lists everyone the member can reach at a company, with
// the shared connections for each second-degree contact.
type CompanyConnections struct {
	*Searcher
	Company string
}

// Name is the query name records and keys use
func (q CompanyConnections) Name() string {
	return QueryCompany
}

// ResultField is the record field people are stored under
func (q CompanyConnections) ResultField() string {
	return models.FieldPeople
}

// Run searches the company's first and second-degree buckets, then attaches mutuals.
func (q CompanyConnections) Run(ctx context.Context, page extract.Page) ([]models.PersonRecord, error) {
	people, err := q.searchBuckets(ctx, page, q.Company, "")
	if err != nil {
		return nil, err
	}
	if err := q.attachMutuals(ctx, page, people); err != nil {
		return nil, err
	}
	return people, nil
}

// RoleAtCompany narrows CompanyConnections to a job title
type RoleAtCompany struct {
	*Searcher
	Role    string
	Company string
}

// Name is the query name records and keys use
func (q RoleAtCompany) Name() string {
	return QueryRole
}

// ResultField is the record field people are stored under
func (q RoleAtCompany) ResultField() string {
	return models.FieldPeople
}

// Run searches both buckets for the role; an empty result is NOT_FOUND.
func (q RoleAtCompany) Run(ctx context.Context, page extract.Page) ([]models.PersonRecord, error) {
	people, err := q.searchBuckets(ctx, page, q.Company, q.Role)
	if err != nil {
		return nil, err
	}
	if len(people) == 0 {
		return nil, engine.NotFound(fmt.Sprintf("no people found with role %s at %s", q.Role, q.Company))
	}
	if err := q.attachMutuals(ctx, page, people); err != nil {
		return nil, err
	}
	return people, nil
}

// MutualConnections lists the member's connections who know the target
type MutualConnections struct {
	*Searcher
	Target Target
}

// Name is the query name records and keys use
func (q MutualConnections) Name() string {
	return QueryMutual
}

// ResultField is the record field people are stored under
func (q MutualConnections) ResultField() string {
	return models.FieldMutualConnections
}

// Run resolves the target and reads its shared connections list.
func (q MutualConnections) Run(ctx context.Context, page extract.Page) ([]models.PersonRecord, error) {
	profileURL, err := q.resolve(ctx, page, q.Target)
	if err != nil {
		return nil, err
	}
	return q.mutualsOf(ctx, page, profileURL)
}

// ConnectionsOfConnection lists who a direct connection knows at a company
type ConnectionsOfConnection struct {
	*Searcher
	Target  Target
	Company string
}

// Name is the query name records and keys use
func (q ConnectionsOfConnection) Name() string {
	return QueryConnections
}

// ResultField is the record field people are stored under
func (q ConnectionsOfConnection) ResultField() string {
	return models.FieldPeople
}

// Run resolves the target, checks it is a direct connection, then walks its
// connections at Company.
func (q ConnectionsOfConnection) Run(ctx context.Context, page extract.Page) ([]models.PersonRecord, error) {
	profileURL, err := q.resolve(ctx, page, q.Target)
	if err != nil {
		return nil, err
	}

	profile, err := q.openProfile(ctx, page, profileURL)
	if err != nil {
		return nil, err
	}

	if degree := profile.Degree(); degree != 1 {
		return nil, engine.Precondition(fmt.Sprintf("%s must be a direct connection to search their connections", q.Target)).
			WithDetail("degree", degree)
	}

	memberID := profile.ConnectionsOf()
	if memberID == "" {
		return nil, engine.Precondition(fmt.Sprintf("%s does not share their connections list", q.Target))
	}

	return q.walk(ctx, page, ConnectionsOfURL(memberID, q.Company), models.LevelMutual)
}
