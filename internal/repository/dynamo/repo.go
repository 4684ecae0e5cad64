// Package dynamo implements associado.Repository on a single DynamoDB table.
//
// Each member is stored as an item keyed "ASSOCIADO#<cpf>". Email uniqueness
// is enforced with a second claim item keyed "EMAIL#<email>" that records the
// owning CPF; the member item and its claim are always written in the same
// conditional transaction.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/clube/associados/internal/domain"
	"github.com/clube/associados/internal/service/associado"
)

const (
	memberPrefix = "ASSOCIADO#"
	emailPrefix  = "EMAIL#"

	condNotExists       = "attribute_not_exists(pk)"
	condExists          = "attribute_exists(pk)"
	condOwnedBy         = "cpf_associado = :cpf"
	condFreeOrOwnedBy   = "attribute_not_exists(pk) OR cpf_associado = :cpf"
	filterMembersPrefix = "begins_with(pk, :p)"

	reasonConditionalCheckFailed = "ConditionalCheckFailed"
)

// API is the subset of *dynamodb.Client the repository uses.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

type memberItem struct {
	PK    string `dynamodbav:"pk"`
	CPF   string `dynamodbav:"cpf_associado"`
	Name  string `dynamodbav:"nome_associado"`
	Email string `dynamodbav:"email_associado"`
}

type emailClaim struct {
	PK  string `dynamodbav:"pk"`
	CPF string `dynamodbav:"cpf_associado"`
}

// Repo implements associado.Repository against DynamoDB.
type Repo struct {
	api   API
	table string
}

// New creates a DynamoDB-backed member repository on table.
func New(api API, table string) *Repo {
	return &Repo{api: api, table: table}
}

func memberKey(cpf string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: memberPrefix + cpf}}
}

func claimKey(email string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: emailPrefix + email}}
}

func cpfValue(cpf string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{":cpf": &types.AttributeValueMemberS{Value: cpf}}
}

func (r *Repo) putMember(a domain.Associado, cond string) (types.TransactWriteItem, error) {
	av, err := attributevalue.MarshalMap(memberItem{PK: memberPrefix + a.CPF, CPF: a.CPF, Name: a.Name, Email: a.Email})
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("marshaling associado: %w", err)
	}
	return types.TransactWriteItem{Put: &types.Put{
		TableName:           aws.String(r.table),
		Item:                av,
		ConditionExpression: aws.String(cond),
	}}, nil
}

func (r *Repo) putClaim(email, cpf, cond string, values map[string]types.AttributeValue) (types.TransactWriteItem, error) {
	av, err := attributevalue.MarshalMap(emailClaim{PK: emailPrefix + email, CPF: cpf})
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("marshaling email claim: %w", err)
	}
	return types.TransactWriteItem{Put: &types.Put{
		TableName:                 aws.String(r.table),
		Item:                      av,
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeValues: values,
	}}, nil
}

func (r *Repo) Insert(ctx context.Context, a domain.Associado) (domain.Associado, error) {
	member, err := r.putMember(a, condNotExists)
	if err != nil {
		return domain.Associado{}, err
	}
	claim, err := r.putClaim(a.Email, a.CPF, condNotExists, nil)
	if err != nil {
		return domain.Associado{}, err
	}

	_, err = r.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{member, claim},
	})
	if err != nil {
		switch failedCondition(err) {
		case 0:
			return domain.Associado{}, associado.DuplicateKeyError(associado.FieldCPF)
		case 1:
			return domain.Associado{}, associado.DuplicateKeyError(associado.FieldEmail)
		}
		return domain.Associado{}, fmt.Errorf("insert associado: %w", err)
	}
	return a, nil
}

func (r *Repo) ListAll(ctx context.Context) ([]domain.Associado, error) {
	out := make([]domain.Associado, 0)
	p := dynamodb.NewScanPaginator(r.api, &dynamodb.ScanInput{
		TableName:        aws.String(r.table),
		FilterExpression: aws.String(filterMembersPrefix),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: memberPrefix},
		},
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list associados: %w", err)
		}
		var items []memberItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshaling associados: %w", err)
		}
		for _, it := range items {
			out = append(out, it.toDomain())
		}
	}
	return out, nil
}

func (r *Repo) FindByCPF(ctx context.Context, cpf string) (domain.Associado, bool, error) {
	res, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            memberKey(cpf),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Associado{}, false, fmt.Errorf("find associado: %w", err)
	}
	if len(res.Item) == 0 {
		return domain.Associado{}, false, nil
	}
	var it memberItem
	if err := attributevalue.UnmarshalMap(res.Item, &it); err != nil {
		return domain.Associado{}, false, fmt.Errorf("unmarshaling associado: %w", err)
	}
	return it.toDomain(), true, nil
}

func (r *Repo) UpdatePartial(ctx context.Context, cpf string, p domain.AssociadoPatch) (domain.Associado, bool, error) {
	cur, found, err := r.FindByCPF(ctx, cpf)
	if err != nil || !found {
		return domain.Associado{}, found, err
	}
	next := p.Apply(cur)
	next.CPF = cpf

	member, err := r.putMember(next, condExists)
	if err != nil {
		return domain.Associado{}, false, err
	}
	items := []types.TransactWriteItem{member}
	if next.Email != cur.Email {
		claim, err := r.putClaim(next.Email, cpf, condFreeOrOwnedBy, cpfValue(cpf))
		if err != nil {
			return domain.Associado{}, false, err
		}
		items = append(items, claim, types.TransactWriteItem{Delete: &types.Delete{
			TableName: aws.String(r.table),
			Key:       claimKey(cur.Email),
		}})
	}

	_, err = r.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		switch failedCondition(err) {
		case 0:
			// Deleted between the read and the write.
			return domain.Associado{}, false, nil
		case 1:
			return domain.Associado{}, false, associado.DuplicateKeyError(associado.FieldEmail)
		}
		return domain.Associado{}, false, fmt.Errorf("update associado: %w", err)
	}
	return next, true, nil
}

func (r *Repo) DeleteByCPF(ctx context.Context, cpf string) (bool, error) {
	cur, found, err := r.FindByCPF(ctx, cpf)
	if err != nil || !found {
		return false, err
	}

	_, err = r.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName:           aws.String(r.table),
				Key:                 memberKey(cpf),
				ConditionExpression: aws.String(condExists),
			}},
			{Delete: &types.Delete{
				TableName:                 aws.String(r.table),
				Key:                       claimKey(cur.Email),
				ConditionExpression:       aws.String(condOwnedBy),
				ExpressionAttributeValues: cpfValue(cpf),
			}},
		},
	})
	if err != nil {
		if failedCondition(err) == 0 {
			return false, nil
		}
		return false, fmt.Errorf("delete associado: %w", err)
	}
	return true, nil
}

// EnsureTable creates the table with a string hash key "pk" if it does not
// exist, and waits for it to become active.
func (r *Repo) EnsureTable(ctx context.Context, maxWait time.Duration) error {
	_, err := r.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.table)})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("describe table %s: %w", r.table, err)
	}

	_, err = r.api.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(r.table),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("pk"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
		},
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", r.table, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(r.api)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.table)}, maxWait); err != nil {
		return fmt.Errorf("waiting for table %s: %w", r.table, err)
	}
	return nil
}

// Ping reports whether the table is reachable.
func (r *Repo) Ping(ctx context.Context) error {
	_, err := r.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.table)})
	return err
}

func (it memberItem) toDomain() domain.Associado {
	return domain.Associado{CPF: it.CPF, Name: it.Name, Email: it.Email}
}

// failedCondition returns the index of the first transaction item whose
// condition check failed, or -1.
func failedCondition(err error) int {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return -1
	}
	for i, reason := range tce.CancellationReasons {
		if strings.EqualFold(aws.ToString(reason.Code), reasonConditionalCheckFailed) {
			return i
		}
	}
	return -1
}
