package catalog

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/expression"
	"github.com/google/uuid"

	"github.com/soapbridge/proxy/internal/errs"
	"github.com/soapbridge/proxy/internal/logger"
)

// DynamoDBStore is the alternate Store implementation for deployments that
// prefer a managed NoSQL catalog over Postgres. A Service and its Operations are
// stored as a single denormalized item, keyed by ID with a name index
// simulated by a full scan on GetByName (acceptable for a catalog whose
// cardinality is "number of integrated SOAP services", not request volume).
type DynamoDBStore struct {
	ddb       *dynamodb.DynamoDB
	tableName string
}

// OpenDynamoDB connects using CATALOG_STORE_DYNAMODB_TABLE and the ambient
// AWS_REGION.
func OpenDynamoDB() (*DynamoDBStore, error) {
	region := os.Getenv("CATALOG_STORE_DYNAMODB_REGION")
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "creating AWS session")
	}
	return &DynamoDBStore{
		ddb:       dynamodb.New(sess),
		tableName: os.Getenv("CATALOG_STORE_DYNAMODB_TABLE"),
	}, nil
}

func (s *DynamoDBStore) Create(ctx context.Context, service *Service) error {
	if service.ID == uuid.Nil {
		service.ID = uuid.New()
	}
	for i := range service.Operations {
		if service.Operations[i].ID == uuid.Nil {
			service.Operations[i].ID = uuid.New()
		}
		service.Operations[i].ServiceID = service.ID
	}
	item, err := dynamodbattribute.MarshalMap(service)
	if err != nil {
		return errs.Wrap(errs.Internal, err, "marshaling service %q", service.Name)
	}
	cond := expression.AttributeNotExists(expression.Name("Name"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return errs.Wrap(errs.Internal, err, "building condition expression")
	}
	_, err = s.ddb.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionFailure(err) {
		return errs.New(errs.NameConflict, "a service named %q already exists", service.Name)
	}
	if err != nil {
		return errs.Wrap(errs.Internal, err, "putting service %q", service.Name)
	}
	return nil
}

func (s *DynamoDBStore) Get(ctx context.Context, id uuid.UUID) (*Service, error) {
	result, err := s.ddb.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       map[string]*dynamodb.AttributeValue{"ID": {S: aws.String(id.String())}},
	})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "getting service %s", id)
	}
	if result.Item == nil {
		return nil, errs.New(errs.ServiceUnknown, "no service with id %s", id)
	}
	var svc Service
	if err := dynamodbattribute.UnmarshalMap(result.Item, &svc); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "unmarshaling service %s", id)
	}
	return &svc, nil
}

func (s *DynamoDBStore) GetByName(ctx context.Context, name string) (*Service, error) {
	filt := expression.Name("Name").Equal(expression.Value(name))
	expr, err := expression.NewBuilder().WithFilter(filt).Build()
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "building filter expression")
	}
	result, err := s.ddb.ScanWithContext(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(s.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "scanning for service %q", name)
	}
	if len(result.Items) == 0 {
		return nil, errs.New(errs.ServiceUnknown, "no service named %q", name)
	}
	var svc Service
	if err := dynamodbattribute.UnmarshalMap(result.Items[0], &svc); err != nil {
		return nil, errs.Wrap(errs.Internal, err, "unmarshaling service %q", name)
	}
	return &svc, nil
}

func (s *DynamoDBStore) List(ctx context.Context) ([]Summary, error) {
	result, err := s.ddb.ScanWithContext(ctx, &dynamodb.ScanInput{TableName: aws.String(s.tableName)})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "scanning services")
	}
	summaries := make([]Summary, 0, len(result.Items))
	for _, item := range result.Items {
		var svc Service
		if err := dynamodbattribute.UnmarshalMap(item, &svc); err != nil {
			logger.Warnf("skipping unreadable catalog item: %v", err)
			continue
		}
		summaries = append(summaries, Summary{
			ID: svc.ID, Name: svc.Name, WSDLURL: svc.WSDLURL, Description: svc.Description,
			GatewayRegistered: svc.Registered, OperationsCount: len(svc.Operations), CreatedAt: svc.CreatedAt,
		})
	}
	return summaries, nil
}

func (s *DynamoDBStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.ddb.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       map[string]*dynamodb.AttributeValue{"ID": {S: aws.String(id.String())}},
	})
	if err != nil {
		return errs.Wrap(errs.Internal, err, "deleting service %s", id)
	}
	return nil
}

func (s *DynamoDBStore) TryBeginRegistration(ctx context.Context, id uuid.UUID) error {
	svc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if svc.Registered {
		return errs.New(errs.AlreadyRegistered, "service %s is already registered", id)
	}
	svc.Registered = true
	return s.putWhole(ctx, svc)
}

func (s *DynamoDBStore) MarkRegistered(ctx context.Context, id uuid.UUID, binding GatewayBinding, toolIDsByOperation map[string]string) error {
	svc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	svc.GatewayBinding = binding
	for i := range svc.Operations {
		if toolID, ok := toolIDsByOperation[svc.Operations[i].Name]; ok {
			toolID := toolID
			svc.Operations[i].GatewayToolID = &toolID
		}
	}
	return s.putWhole(ctx, svc)
}

func (s *DynamoDBStore) ClearRegistration(ctx context.Context, id uuid.UUID) error {
	svc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	svc.GatewayBinding = GatewayBinding{}
	for i := range svc.Operations {
		svc.Operations[i].GatewayToolID = nil
	}
	return s.putWhole(ctx, svc)
}

func (s *DynamoDBStore) TouchWSDLAccess(ctx context.Context, wsdlURL, serviceName string, at time.Time) error {
	item, err := dynamodbattribute.MarshalMap(WSDLCacheEntry{WSDLURL: wsdlURL, ServiceName: serviceName, LastAccessed: at})
	if err != nil {
		logger.Warnf("failed to marshal WSDL cache entry for %s: %v", wsdlURL, err)
		return err
	}
	_, err = s.ddb.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName + "_wsdl_cache"),
		Item:      item,
	})
	if err != nil {
		logger.Warnf("failed to update WSDL cache access time for %s: %v", wsdlURL, err)
	}
	return err
}

func (s *DynamoDBStore) putWhole(ctx context.Context, svc *Service) error {
	item, err := dynamodbattribute.MarshalMap(svc)
	if err != nil {
		return errs.Wrap(errs.Internal, err, "marshaling service %s", svc.ID)
	}
	_, err = s.ddb.PutItemWithContext(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.tableName), Item: item})
	if err != nil {
		return errs.Wrap(errs.Internal, err, "putting service %s", svc.ID)
	}
	return nil
}

func isConditionFailure(err error) bool {
	if err == nil {
		return false
	}
	if aerr, ok := err.(interface{ Code() string }); ok {
		return aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException
	}
	return false
}
